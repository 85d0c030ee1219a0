package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go-dive-auth/internal/model"
)

// MemoryUserRepository keeps users in process memory. Values are copied on the
// way in and out so callers never share profile or document slices with the store.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	users   map[string]model.User
	byEmail map[string]string
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:   make(map[string]model.User),
		byEmail: make(map[string]string),
	}
}

func (r *MemoryUserRepository) CreateUser(_ context.Context, u model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.insert(u)
}

func (r *MemoryUserRepository) CreateOperator(_ context.Context, u model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u.Operator == nil {
		u.Operator = &model.DiveOperatorProfile{UserID: u.ID, Verification: model.PendingVerification()}
	}
	return r.insert(u)
}

func (r *MemoryUserRepository) insert(u model.User) error {
	key := emailKey(u.Email)
	if _, taken := r.byEmail[key]; taken {
		return model.ErrEmailTaken
	}
	r.users[u.ID] = cloneUser(u)
	r.byEmail[key] = u.ID
	return nil
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[emailKey(email)]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return cloneUser(r.users[id]), nil
}

func (r *MemoryUserRepository) EmailExists(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byEmail[emailKey(email)]
	return ok, nil
}

func (r *MemoryUserRepository) UpdateProfile(_ context.Context, u model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.users[u.ID]
	if !ok {
		return model.ErrUserNotFound
	}

	oldKey, newKey := emailKey(current.Email), emailKey(u.Email)
	if oldKey != newKey {
		if _, taken := r.byEmail[newKey]; taken {
			return model.ErrEmailTaken
		}
		delete(r.byEmail, oldKey)
		r.byEmail[newKey] = u.ID
	}

	current.FirstName = u.FirstName
	current.LastName = u.LastName
	current.Email = u.Email
	current.UpdatedAt = u.UpdatedAt
	r.users[u.ID] = current
	return nil
}

func (r *MemoryUserRepository) UpdatePassword(_ context.Context, userID string, passwordHash string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.users[userID]
	if !ok {
		return model.ErrUserNotFound
	}
	current.PasswordHash = passwordHash
	current.UpdatedAt = at
	r.users[userID] = current
	return nil
}

func (r *MemoryUserRepository) ListOperators(_ context.Context, status model.VerificationStatus) ([]model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.User, 0)
	for _, u := range r.users {
		if !u.IsDiveOperator() || u.Operator == nil {
			continue
		}
		if status != model.VerificationNone && u.Operator.Verification.Status != status {
			continue
		}
		out = append(out, cloneUser(u))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// TransitionVerification holds the write lock across fn so concurrent transitions serialize.
func (r *MemoryUserRepository) TransitionVerification(_ context.Context, userID string, fn model.VerificationTransition) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.users[userID]
	if !ok || !current.IsDiveOperator() || current.Operator == nil {
		return model.User{}, model.ErrOperatorNotFound
	}

	next, err := fn(cloneUser(current))
	if err != nil {
		return model.User{}, err
	}

	current = cloneUser(current)
	current.Operator.Verification = cloneState(next)
	r.users[userID] = current
	return cloneUser(current), nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func cloneUser(u model.User) model.User {
	if u.Operator == nil {
		return u
	}
	profile := *u.Operator
	profile.Verification = cloneState(profile.Verification)
	profile.Documents = append([]model.Document{}, profile.Documents...)
	u.Operator = &profile
	return u
}

func cloneState(s model.VerificationState) model.VerificationState {
	if s.VerifiedAt != nil {
		at := *s.VerifiedAt
		s.VerifiedAt = &at
	}
	if s.RejectionReason != nil {
		reason := *s.RejectionReason
		s.RejectionReason = &reason
	}
	return s
}
