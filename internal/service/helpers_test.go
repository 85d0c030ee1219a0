package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-dive-auth/internal/model"
	"go-dive-auth/internal/repository"
	"go-dive-auth/internal/storage"
)

const testSecret = "test-signing-secret"

var testEpoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newCredentials(t *testing.T) (*CredentialService, *repository.MemoryUserRepository) {
	t.Helper()

	repo := repository.NewMemoryUserRepository()
	return NewCredentialService(repo, nil, bcrypt.MinCost), repo
}

type authFixture struct {
	repo         *repository.MemoryUserRepository
	credentials  *CredentialService
	verification *VerificationService
	tokens       *TokenService
	auth         *AuthService
	clock        *fakeClock
}

func newAuthFixture(t *testing.T, sink storage.DocumentSink) *authFixture {
	t.Helper()

	clock := &fakeClock{now: testEpoch}
	repo := repository.NewMemoryUserRepository()
	credentials := NewCredentialService(repo, nil, bcrypt.MinCost)
	credentials.now = clock.Now
	verification := NewVerificationService(repo, nil)
	verification.now = clock.Now
	tokens := NewTokenService(testSecret, time.Hour, 7*24*time.Hour, WithClock(clock.Now))

	return &authFixture{
		repo:         repo,
		credentials:  credentials,
		verification: verification,
		tokens:       tokens,
		auth:         NewAuthService(credentials, NewDocumentValidator(), tokens, sink),
		clock:        clock,
	}
}

func signupRequest(email string) model.SignupRequest {
	return model.SignupRequest{
		FirstName: "Marina",
		LastName:  "Reyes",
		Email:     email,
		Password:  "secret-pass",
	}
}

func upload(name string, contentType string, size int) *model.DocumentUpload {
	return &model.DocumentUpload{
		Filename:    name,
		ContentType: contentType,
		Size:        int64(size),
		Content:     bytes.NewReader(bytes.Repeat([]byte("x"), size)),
	}
}

func operatorUploads() map[model.DocumentType]*model.DocumentUpload {
	return map[model.DocumentType]*model.DocumentUpload{
		model.DocumentBIR:           upload("bir permit.pdf", "application/pdf", 2048),
		model.DocumentCertification: upload("padi-cert.png", "image/png", 1024),
	}
}

func createOperator(t *testing.T, f *authFixture, email string) model.User {
	t.Helper()

	req := signupRequest(email)
	req.IsDiveOperator = true

	payload, err := f.auth.Signup(context.Background(), req, operatorUploads())
	require.NoError(t, err)

	user, err := f.repo.FindByID(context.Background(), payload.User.ID)
	require.NoError(t, err)
	return user
}

func newLocalSink(t *testing.T) *storage.LocalSink {
	t.Helper()

	sink, err := storage.NewLocalSink(t.TempDir())
	require.NoError(t, err)
	return sink
}
