package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"go-dive-auth/internal/model"
	"go-dive-auth/internal/storage"
	"go-dive-auth/pkg/apierror"
)

const (
	pendingWarning       = "Your dive operator account is still pending admin verification."
	rejectedWarningFmt   = "Your dive operator account was rejected: %s"
	noRejectionReasonMsg = "No reason provided."
)

// AuthService ties signup, login and token renewal to the credential store,
// the document validator and the token service.
type AuthService struct {
	credentials *CredentialService
	documents   *DocumentValidator
	tokens      *TokenService
	sink        storage.DocumentSink
}

func NewAuthService(credentials *CredentialService, documents *DocumentValidator, tokens *TokenService, sink storage.DocumentSink) *AuthService {
	return &AuthService{
		credentials: credentials,
		documents:   documents,
		tokens:      tokens,
		sink:        sink,
	}
}

// Signup creates a regular account, or a dive operator account when the
// request says so. Operator signup is all-or-nothing: no account is created
// unless both documents validate and are stored.
func (s *AuthService) Signup(ctx context.Context, req model.SignupRequest, uploads map[model.DocumentType]*model.DocumentUpload) (model.AuthPayload, error) {
	var (
		user model.User
		err  error
	)

	if bool(req.IsDiveOperator) {
		user, err = s.signupOperator(ctx, req, uploads)
	} else {
		user, err = s.credentials.CreateUser(ctx, req, model.RoleRegular)
	}
	if err != nil {
		return model.AuthPayload{}, err
	}

	tokens, err := s.tokens.Issue(user)
	if err != nil {
		return model.AuthPayload{}, err
	}

	return model.AuthPayload{User: user.View(), TokenPair: tokens}, nil
}

func (s *AuthService) signupOperator(ctx context.Context, req model.SignupRequest, uploads map[model.DocumentType]*model.DocumentUpload) (model.User, error) {
	user, err := s.credentials.NewUser(ctx, req, model.RoleDiveOperator)
	if err != nil {
		return model.User{}, err
	}

	validated := make([]model.ValidatedDocument, 0, len(model.RequiredDocuments))
	for _, docType := range model.RequiredDocuments {
		doc, err := s.documents.Validate(uploads[docType], docType)
		if err != nil {
			return model.User{}, err
		}
		validated = append(validated, doc)
	}

	if s.sink == nil {
		return model.User{}, errors.New("document storage is not configured")
	}

	stored := make([]string, 0, len(validated))
	documents := make([]model.Document, 0, len(validated))
	for _, doc := range validated {
		key := documentKey(doc)
		upload := uploads[doc.DocType]
		if err := s.sink.Put(ctx, key, upload.Content, doc.Size, doc.MimeType); err != nil {
			s.discard(ctx, stored)
			return model.User{}, fmt.Errorf("store %s document: %w", doc.DocType, err)
		}
		stored = append(stored, key)

		documents = append(documents, model.Document{
			ID:               uuid.NewString(),
			UserID:           user.ID,
			DocType:          doc.DocType,
			OriginalFilename: doc.OriginalFilename,
			StoredKey:        key,
			FileSize:         doc.Size,
			MimeType:         doc.MimeType,
			UploadedAt:       user.CreatedAt,
		})
	}

	user.Operator = &model.DiveOperatorProfile{
		UserID:       user.ID,
		Verification: model.PendingVerification(),
		Documents:    documents,
	}

	created, err := s.credentials.CreateOperator(ctx, user)
	if err != nil {
		s.discard(ctx, stored)
		return model.User{}, err
	}

	return created, nil
}

// discard removes blobs written for a signup that did not complete.
func (s *AuthService) discard(ctx context.Context, keys []string) {
	cleanupCtx := context.WithoutCancel(ctx)
	for _, key := range keys {
		if err := s.sink.Delete(cleanupCtx, key); err != nil {
			slog.Warn("failed to remove orphaned document", "key", key, "error", err)
		}
	}
}

// Login verifies credentials and issues tokens. Pending and rejected operators
// still log in; the payload carries an advisory warning.
func (s *AuthService) Login(ctx context.Context, email string, password string) (model.AuthPayload, error) {
	user, err := s.credentials.VerifyCredentials(ctx, email, password)
	if err != nil {
		return model.AuthPayload{}, err
	}

	tokens, err := s.tokens.Issue(user)
	if err != nil {
		return model.AuthPayload{}, err
	}

	payload := model.AuthPayload{User: user.View(), TokenPair: tokens}
	if user.IsDiveOperator() {
		payload.VerificationStatus = user.VerificationStatus()
		payload.Warning = loginWarning(user)
	}

	slog.Info("user logged in", "user_id", user.ID, "role", user.Role)
	return payload, nil
}

func loginWarning(user model.User) string {
	if user.Operator == nil {
		return ""
	}

	switch user.Operator.Verification.Status {
	case model.VerificationPending:
		return pendingWarning
	case model.VerificationRejected:
		reason := noRejectionReasonMsg
		if r := user.Operator.Verification.RejectionReason; r != nil && strings.TrimSpace(*r) != "" {
			reason = *r
		}
		return fmt.Sprintf(rejectedWarningFmt, reason)
	default:
		return ""
	}
}

// Refresh exchanges a refresh token for a brand-new pair. The presented token
// stays valid until it expires.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return model.TokenPair{}, err
	}

	user, err := s.credentials.store.FindByID(ctx, claims.UserID)
	if errors.Is(err, model.ErrUserNotFound) || (err == nil && !user.IsActive) {
		return model.TokenPair{}, apierror.Unauthorized(apierror.ReasonInvalid, "User not found or inactive")
	}
	if err != nil {
		return model.TokenPair{}, err
	}

	return s.tokens.Issue(user)
}

func (s *AuthService) Me(ctx context.Context, userID string) (model.User, error) {
	return s.credentials.GetUser(ctx, userID)
}

func documentKey(doc model.ValidatedDocument) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s/%s_%s%s", doc.DocType, doc.DocType, hex, doc.Extension)
}
