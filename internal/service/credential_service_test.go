package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-dive-auth/internal/model"
	"go-dive-auth/pkg/apierror"
)

func TestCreateUserNormalizesEmailAndRejectsDuplicates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newCredentials(t)

	user, err := svc.CreateUser(ctx, signupRequest("  Marina.Reyes@Example.COM "), model.RoleRegular)
	require.NoError(t, err)
	assert.Equal(t, "marina.reyes@example.com", user.Email)
	assert.True(t, user.IsActive)
	assert.Equal(t, model.RoleRegular, user.Role)
	assert.NotEqual(t, "secret-pass", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret-pass")))

	for _, variant := range []string{"marina.reyes@example.com", "MARINA.REYES@EXAMPLE.COM", "Marina.Reyes@example.com"} {
		_, err := svc.CreateUser(ctx, signupRequest(variant), model.RoleRegular)
		require.True(t, apierror.HasReason(err, apierror.CodeConflict, apierror.ReasonEmailTaken), variant)
	}
}

func TestCreateUserValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*model.SignupRequest)
		field  string
	}{
		{"short first name", func(r *model.SignupRequest) { r.FirstName = "A" }, "first_name"},
		{"blank last name", func(r *model.SignupRequest) { r.LastName = "   " }, "last_name"},
		{"short password", func(r *model.SignupRequest) { r.Password = "12345" }, "password"},
		{"malformed email", func(r *model.SignupRequest) { r.Email = "not-an-email" }, "email"},
		{"missing email", func(r *model.SignupRequest) { r.Email = "" }, "email"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, repo := newCredentials(t)
			req := signupRequest("diver@example.com")
			tt.mutate(&req)

			_, err := svc.CreateUser(context.Background(), req, model.RoleRegular)
			require.True(t, apierror.HasReason(err, apierror.CodeValidation, apierror.ReasonInvalidField))
			assert.Contains(t, err.Error(), tt.field)

			exists, err := repo.EmailExists(context.Background(), "diver@example.com")
			require.NoError(t, err)
			assert.False(t, exists)
		})
	}
}

func TestVerifyCredentials(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, repo := newCredentials(t)

	created, err := svc.CreateUser(ctx, signupRequest("diver@example.com"), model.RoleRegular)
	require.NoError(t, err)

	user, err := svc.VerifyCredentials(ctx, " DIVER@example.com", "secret-pass")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, err = svc.VerifyCredentials(ctx, "diver@example.com", "wrong-pass")
	require.True(t, apierror.HasReason(err, apierror.CodeAuth, apierror.ReasonInvalidCredentials))

	_, err = svc.VerifyCredentials(ctx, "nobody@example.com", "secret-pass")
	require.True(t, apierror.HasReason(err, apierror.CodeAuth, apierror.ReasonInvalidCredentials))

	_, err = svc.VerifyCredentials(ctx, "", "")
	require.True(t, apierror.HasReason(err, apierror.CodeValidation, apierror.ReasonMissing))

	// No API deactivates accounts, so seed an inactive one directly.
	require.NoError(t, repo.CreateUser(ctx, model.User{
		ID:           "inactive",
		Email:        "inactive@example.com",
		PasswordHash: created.PasswordHash,
		Role:         model.RoleRegular,
	}))
	_, err = svc.VerifyCredentials(ctx, "inactive@example.com", "secret-pass")
	require.True(t, apierror.HasReason(err, apierror.CodeForbidden, apierror.ReasonAccountDeactivated))
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newCredentials(t)

	user, err := svc.CreateUser(ctx, signupRequest("one@example.com"), model.RoleRegular)
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, signupRequest("two@example.com"), model.RoleRegular)
	require.NoError(t, err)

	str := func(s string) *string { return &s }

	updated, err := svc.UpdateProfile(ctx, user.ID, model.UpdateProfileRequest{FirstName: str("  Coral "), LastName: str("")})
	require.NoError(t, err)
	assert.Equal(t, "Coral", updated.FirstName)
	assert.Equal(t, "Reyes", updated.LastName)
	assert.Equal(t, "one@example.com", updated.Email)

	_, err = svc.UpdateProfile(ctx, user.ID, model.UpdateProfileRequest{LastName: str("R")})
	require.True(t, apierror.HasReason(err, apierror.CodeValidation, apierror.ReasonInvalidField))

	_, err = svc.UpdateProfile(ctx, user.ID, model.UpdateProfileRequest{Email: str("broken")})
	require.True(t, apierror.HasReason(err, apierror.CodeValidation, apierror.ReasonInvalidField))

	_, err = svc.UpdateProfile(ctx, user.ID, model.UpdateProfileRequest{Email: str("TWO@example.com")})
	require.True(t, apierror.HasReason(err, apierror.CodeConflict, apierror.ReasonEmailTaken))

	updated, err = svc.UpdateProfile(ctx, user.ID, model.UpdateProfileRequest{Email: str("Three@Example.com")})
	require.NoError(t, err)
	assert.Equal(t, "three@example.com", updated.Email)

	_, err = svc.VerifyCredentials(ctx, "three@example.com", "secret-pass")
	require.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, "missing", model.UpdateProfileRequest{FirstName: str("Coral")})
	require.True(t, apierror.HasReason(err, apierror.CodeNotFound, apierror.ReasonUserNotFound))
}

func TestChangePassword(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newCredentials(t)

	user, err := svc.CreateUser(ctx, signupRequest("diver@example.com"), model.RoleRegular)
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, user.ID, "wrong-pass", "new-secret")
	require.True(t, apierror.HasReason(err, apierror.CodeAuth, apierror.ReasonWrongPassword))

	err = svc.ChangePassword(ctx, user.ID, "secret-pass", "short")
	require.True(t, apierror.HasReason(err, apierror.CodeValidation, apierror.ReasonInvalidField))

	err = svc.ChangePassword(ctx, user.ID, "", "")
	require.True(t, apierror.HasReason(err, apierror.CodeValidation, apierror.ReasonMissing))

	require.NoError(t, svc.ChangePassword(ctx, user.ID, "secret-pass", "new-secret"))

	_, err = svc.VerifyCredentials(ctx, "diver@example.com", "secret-pass")
	require.Error(t, err)
	_, err = svc.VerifyCredentials(ctx, "diver@example.com", "new-secret")
	require.NoError(t, err)
}

type mockIdentityCache struct {
	mock.Mock
}

func (m *mockIdentityCache) Get(ctx context.Context, userID string) (model.Identity, bool, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.Identity), args.Bool(1), args.Error(2)
}

func (m *mockIdentityCache) Set(ctx context.Context, identity model.Identity) error {
	return m.Called(ctx, identity).Error(0)
}

func (m *mockIdentityCache) Invalidate(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func TestLoadIdentityUsesCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newCredentials(t)
	user, err := svc.CreateUser(ctx, signupRequest("diver@example.com"), model.RoleRegular)
	require.NoError(t, err)

	identities := &mockIdentityCache{}
	svc.identities = identities

	identities.On("Get", ctx, user.ID).Return(model.Identity{}, false, nil).Once()
	identities.On("Set", ctx, user.Identity()).Return(nil).Once()

	identity, err := svc.LoadIdentity(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Identity(), identity)

	cached := model.Identity{UserID: user.ID, Role: model.RoleAdmin, IsActive: true}
	identities.On("Get", ctx, user.ID).Return(cached, true, nil).Once()

	identity, err = svc.LoadIdentity(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, cached, identity)

	identities.AssertExpectations(t)
}

func TestLoadIdentityUnknownUser(t *testing.T) {
	t.Parallel()

	svc, _ := newCredentials(t)
	_, err := svc.LoadIdentity(context.Background(), "ghost")
	require.True(t, apierror.HasReason(err, apierror.CodeAuth, apierror.ReasonInvalid))
}

func TestSeedAdmin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, repo := newCredentials(t)

	require.NoError(t, svc.SeedAdmin(ctx, "", ""))
	require.NoError(t, svc.SeedAdmin(ctx, "Admin@Example.com", "admin-pass"))
	require.NoError(t, svc.SeedAdmin(ctx, "admin@example.com", "admin-pass"))

	admin, err := repo.FindByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin.Role)

	require.Error(t, svc.SeedAdmin(ctx, "other@example.com", "123"))
}
