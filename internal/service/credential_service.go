package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"go-dive-auth/internal/model"
	"go-dive-auth/pkg/apierror"
)

const (
	minNameLength     = 2
	maxNameLength     = 120
	maxEmailLength    = 120
	minPasswordLength = 6
	// bcrypt ignores everything past 72 bytes.
	maxPasswordLength = 72
)

type CredentialService struct {
	store      UserStore
	identities IdentityCache
	bcryptCost int
	now        func() time.Time
}

func NewCredentialService(store UserStore, identities IdentityCache, bcryptCost int) *CredentialService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}

	return &CredentialService{
		store:      store,
		identities: identities,
		bcryptCost: bcryptCost,
		now:        utcNow,
	}
}

// CreateUser validates and persists a new account with the given role.
func (s *CredentialService) CreateUser(ctx context.Context, req model.SignupRequest, role model.Role) (model.User, error) {
	user, err := s.NewUser(ctx, req, role)
	if err != nil {
		return model.User{}, err
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return model.User{}, mapStoreError(err)
	}

	slog.Info("user created", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// NewUser validates the signup fields, checks the email is free and hashes the
// password. Nothing is persisted.
func (s *CredentialService) NewUser(ctx context.Context, req model.SignupRequest, role model.Role) (model.User, error) {
	if !role.Valid() {
		return model.User{}, apierror.Validation(apierror.ReasonInvalidField, "invalid role").WithDetails(string(role))
	}

	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = normalizeEmail(req.Email)

	err := validation.ValidateStruct(&req,
		validation.Field(&req.FirstName, validation.Required, validation.RuneLength(minNameLength, maxNameLength)),
		validation.Field(&req.LastName, validation.Required, validation.RuneLength(minNameLength, maxNameLength)),
		validation.Field(&req.Email, validation.Required, validation.RuneLength(0, maxEmailLength), is.Email),
		validation.Field(&req.Password, validation.Required, validation.Length(minPasswordLength, maxPasswordLength)),
	)
	if err != nil {
		return model.User{}, fieldError(err)
	}

	taken, err := s.store.EmailExists(ctx, req.Email)
	if err != nil {
		return model.User{}, err
	}
	if taken {
		return model.User{}, emailTaken()
	}

	hash, err := s.hash(req.Password)
	if err != nil {
		return model.User{}, err
	}

	now := s.now()
	return model.User{
		ID:           uuid.NewString(),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// CreateOperator persists an operator built by NewUser together with its profile and documents.
func (s *CredentialService) CreateOperator(ctx context.Context, user model.User) (model.User, error) {
	if user.Role != model.RoleDiveOperator || user.Operator == nil {
		return model.User{}, fmt.Errorf("create operator: user %s has no operator profile", user.ID)
	}

	if err := s.store.CreateOperator(ctx, user); err != nil {
		return model.User{}, mapStoreError(err)
	}

	slog.Info("dive operator created", "user_id", user.ID, "documents", len(user.Operator.Documents))
	return user, nil
}

func (s *CredentialService) VerifyCredentials(ctx context.Context, email string, password string) (model.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return model.User{}, apierror.Validation(apierror.ReasonMissing, "Email and password are required")
	}

	user, err := s.store.FindByEmail(ctx, email)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, invalidCredentials()
	}
	if err != nil {
		return model.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return model.User{}, invalidCredentials()
	}

	if !user.IsActive {
		return model.User{}, apierror.Forbidden(apierror.ReasonAccountDeactivated, "Account is deactivated")
	}

	return user, nil
}

// UpdateProfile applies the supplied, non-blank fields.
func (s *CredentialService) UpdateProfile(ctx context.Context, userID string, req model.UpdateProfileRequest) (model.User, error) {
	req.FirstName = trimmedOrNil(req.FirstName)
	req.LastName = trimmedOrNil(req.LastName)
	req.Email = trimmedOrNil(req.Email)
	if req.Email != nil {
		normalized := normalizeEmail(*req.Email)
		req.Email = &normalized
	}

	err := validation.ValidateStruct(&req,
		validation.Field(&req.FirstName, validation.RuneLength(minNameLength, maxNameLength)),
		validation.Field(&req.LastName, validation.RuneLength(minNameLength, maxNameLength)),
		validation.Field(&req.Email, validation.RuneLength(0, maxEmailLength), is.Email),
	)
	if err != nil {
		return model.User{}, fieldError(err)
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return model.User{}, err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Email != nil && *req.Email != user.Email {
		taken, err := s.store.EmailExists(ctx, *req.Email)
		if err != nil {
			return model.User{}, err
		}
		if taken {
			return model.User{}, emailTaken()
		}
		user.Email = *req.Email
	}

	user.UpdatedAt = s.now()
	if err := s.store.UpdateProfile(ctx, user); err != nil {
		return model.User{}, mapStoreError(err)
	}

	return user, nil
}

func (s *CredentialService) ChangePassword(ctx context.Context, userID string, current string, next string) error {
	if current == "" || next == "" {
		return apierror.Validation(apierror.ReasonMissing, "current_password and new_password are required")
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return apierror.Unauthorized(apierror.ReasonWrongPassword, "Current password is incorrect")
	}

	if err := validation.Validate(next, validation.Length(minPasswordLength, maxPasswordLength)); err != nil {
		return apierror.Validation(apierror.ReasonInvalidField, "new_password: "+err.Error())
	}

	hash, err := s.hash(next)
	if err != nil {
		return err
	}

	if err := s.store.UpdatePassword(ctx, userID, hash, s.now()); err != nil {
		return mapStoreError(err)
	}

	slog.Info("password changed", "user_id", userID)
	return nil
}

func (s *CredentialService) GetUser(ctx context.Context, userID string) (model.User, error) {
	user, err := s.store.FindByID(ctx, userID)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, apierror.NotFound(apierror.ReasonUserNotFound, "User not found")
	}
	if err != nil {
		return model.User{}, err
	}
	return user, nil
}

// LoadIdentity returns the role, active flag and verification status of userID,
// preferring the identity cache. Cache failures degrade to a store read.
func (s *CredentialService) LoadIdentity(ctx context.Context, userID string) (model.Identity, error) {
	if s.identities != nil {
		identity, ok, err := s.identities.Get(ctx, userID)
		if err != nil {
			slog.Warn("identity cache read failed", "user_id", userID, "error", err)
		}
		if ok {
			return identity, nil
		}
	}

	user, err := s.store.FindByID(ctx, userID)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.Identity{}, apierror.Unauthorized(apierror.ReasonInvalid, "User not found or inactive")
	}
	if err != nil {
		return model.Identity{}, err
	}

	identity := user.Identity()
	if s.identities != nil {
		if err := s.identities.Set(ctx, identity); err != nil {
			slog.Warn("identity cache write failed", "user_id", userID, "error", err)
		}
	}

	return identity, nil
}

// SeedAdmin creates the configured admin account unless the email is already registered.
func (s *CredentialService) SeedAdmin(ctx context.Context, email string, password string) error {
	if strings.TrimSpace(email) == "" {
		return nil
	}

	exists, err := s.store.EmailExists(ctx, normalizeEmail(email))
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if exists {
		slog.Debug("admin account already present", "email", normalizeEmail(email))
		return nil
	}

	admin, err := s.CreateUser(ctx, model.SignupRequest{
		FirstName: "Site",
		LastName:  "Admin",
		Email:     email,
		Password:  password,
	}, model.RoleAdmin)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	slog.Info("admin account seeded", "user_id", admin.ID, "email", admin.Email)
	return nil
}

func (s *CredentialService) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func fieldError(err error) error {
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		return apierror.Validation(apierror.ReasonInvalidField, fieldErrs.Error())
	}
	return err
}

func mapStoreError(err error) error {
	switch {
	case errors.Is(err, model.ErrEmailTaken):
		return emailTaken()
	case errors.Is(err, model.ErrUserNotFound):
		return apierror.NotFound(apierror.ReasonUserNotFound, "User not found")
	default:
		return err
	}
}

func emailTaken() error {
	return apierror.Conflict(apierror.ReasonEmailTaken, "Email already registered")
}

func invalidCredentials() error {
	return apierror.Unauthorized(apierror.ReasonInvalidCredentials, "Invalid credentials")
}
