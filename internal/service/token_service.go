package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"go-dive-auth/internal/model"
	"go-dive-auth/pkg/apierror"
)

const tokenTypeBearer = "Bearer"

type tokenClaims struct {
	Role model.Role      `json:"role,omitempty"`
	Type model.TokenKind `json:"typ"`
	jwt.RegisteredClaims
}

type TokenOption func(*TokenService)

// WithClock replaces the wall clock used for issuing and verifying tokens.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

// TokenService issues and verifies HS256 access and refresh tokens. It keeps no
// per-token state, so tokens stay valid until they expire.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	parser     *jwt.Parser
}

func NewTokenService(secret string, accessTTL time.Duration, refreshTTL time.Duration, opts ...TokenOption) *TokenService {
	s := &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        utcNow,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	return s
}

func (s *TokenService) Issue(user model.User) (model.TokenPair, error) {
	now := s.now()

	access, err := s.sign(tokenClaims{
		Role: user.Role,
		Type: model.TokenKindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	})
	if err != nil {
		return model.TokenPair{}, err
	}

	refresh, err := s.sign(tokenClaims{
		Type: model.TokenKindRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
		},
	})
	if err != nil {
		return model.TokenPair{}, err
	}

	return model.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    int64(s.accessTTL / time.Second),
	}, nil
}

func (s *TokenService) VerifyAccess(raw string) (model.AuthClaims, error) {
	claims, err := s.parse(raw)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return model.AuthClaims{}, apierror.Unauthorized(apierror.ReasonExpired, "Access token has expired")
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return model.AuthClaims{}, apierror.Unauthorized(apierror.ReasonInvalidSignature, "Invalid token signature")
	default:
		return model.AuthClaims{}, malformedToken()
	}

	if claims.Type != model.TokenKindAccess || claims.Subject == "" {
		return model.AuthClaims{}, malformedToken()
	}

	return toAuthClaims(claims), nil
}

func (s *TokenService) VerifyRefresh(raw string) (model.AuthClaims, error) {
	if strings.TrimSpace(raw) == "" {
		return model.AuthClaims{}, apierror.Validation(apierror.ReasonMissing, "Refresh token is required")
	}

	claims, err := s.parse(raw)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return model.AuthClaims{}, apierror.Unauthorized(apierror.ReasonExpired, "Refresh token has expired, please log in again")
	}
	if err != nil || claims.Type != model.TokenKindRefresh || claims.Subject == "" {
		return model.AuthClaims{}, apierror.Unauthorized(apierror.ReasonInvalid, "Invalid refresh token")
	}

	return toAuthClaims(claims), nil
}

func (s *TokenService) parse(raw string) (*tokenClaims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, jwt.ErrTokenMalformed
	}

	claims := &tokenClaims{}
	_, err := s.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *TokenService) sign(claims tokenClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func toAuthClaims(c *tokenClaims) model.AuthClaims {
	return model.AuthClaims{
		UserID:  c.Subject,
		Role:    c.Role,
		Type:    c.Type,
		TokenID: c.ID,
	}
}

func malformedToken() error {
	return apierror.Unauthorized(apierror.ReasonMissingOrMalformed, "Invalid or malformed token")
}
