package model

import (
	"strings"
	"time"
)

type Role string

const (
	RoleRegular      Role = "regular"
	RoleDiveOperator Role = "dive_operator"
	RoleAdmin        Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleRegular, RoleDiveOperator, RoleAdmin:
		return true
	default:
		return false
	}
}

type VerificationStatus string

const (
	// VerificationNone is the status reported for identities that have no operator profile.
	VerificationNone     VerificationStatus = ""
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

func ParseVerificationStatus(raw string) (VerificationStatus, bool) {
	switch status := VerificationStatus(strings.ToLower(strings.TrimSpace(raw))); status {
	case VerificationPending, VerificationApproved, VerificationRejected:
		return status, true
	default:
		return VerificationNone, false
	}
}

type User struct {
	ID           string               `json:"id"`
	FirstName    string               `json:"first_name"`
	LastName     string               `json:"last_name"`
	Email        string               `json:"email"`
	PasswordHash string               `json:"-"`
	Role         Role                 `json:"role"`
	IsActive     bool                 `json:"is_active"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
	Operator     *DiveOperatorProfile `json:"-"`
}

func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

func (u User) IsDiveOperator() bool {
	return u.Role == RoleDiveOperator
}

// VerificationStatus is VerificationNone for users without an operator profile.
func (u User) VerificationStatus() VerificationStatus {
	if u.Operator == nil {
		return VerificationNone
	}

	return u.Operator.Verification.Status
}

// Identity is what the access gate needs to know about the caller.
type Identity struct {
	UserID       string             `json:"user_id"`
	Role         Role               `json:"role"`
	IsActive     bool               `json:"is_active"`
	Verification VerificationStatus `json:"verification_status,omitempty"`
}

func (u User) Identity() Identity {
	return Identity{
		UserID:       u.ID,
		Role:         u.Role,
		IsActive:     u.IsActive,
		Verification: u.VerificationStatus(),
	}
}

type UserView struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	IsActive  bool      `json:"is_active"`
	*OperatorView
}

type OperatorView struct {
	VerificationStatus VerificationStatus `json:"verification_status"`
	VerifiedAt         *time.Time         `json:"verified_at"`
	RejectionReason    *string            `json:"rejection_reason"`
	Documents          []Document         `json:"documents"`
}

func (u User) View() UserView {
	view := UserView{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.FullName(),
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		IsActive:  u.IsActive,
	}

	if u.IsDiveOperator() && u.Operator != nil {
		documents := u.Operator.Documents
		if documents == nil {
			documents = []Document{}
		}
		view.OperatorView = &OperatorView{
			VerificationStatus: u.Operator.Verification.Status,
			VerifiedAt:         u.Operator.Verification.VerifiedAt,
			RejectionReason:    u.Operator.Verification.RejectionReason,
			Documents:          documents,
		}
	}

	return view
}

type AuthClaims struct {
	UserID  string    `json:"sub"`
	Role    Role      `json:"role,omitempty"`
	Type    TokenKind `json:"typ"`
	TokenID string    `json:"jti"`
}

type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}
