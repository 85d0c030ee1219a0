package service

import (
	"context"
	"time"

	"go-dive-auth/internal/model"
)

// UserStore is the persistence the auth core depends on. Every method is one
// atomic write or a consistent read.
type UserStore interface {
	CreateUser(ctx context.Context, u model.User) error
	CreateOperator(ctx context.Context, u model.User) error
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateProfile(ctx context.Context, u model.User) error
	UpdatePassword(ctx context.Context, userID string, passwordHash string, at time.Time) error
	ListOperators(ctx context.Context, status model.VerificationStatus) ([]model.User, error)
	TransitionVerification(ctx context.Context, userID string, fn model.VerificationTransition) (model.User, error)
}

// IdentityCache is satisfied by *cache.IdentityCache, including a nil one.
type IdentityCache interface {
	Get(ctx context.Context, userID string) (model.Identity, bool, error)
	Set(ctx context.Context, identity model.Identity) error
	Invalidate(ctx context.Context, userID string) error
}

func utcNow() time.Time {
	return time.Now().UTC()
}
