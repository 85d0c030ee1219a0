package middleware

import (
	"context"
	"net/http"
	"strings"

	"go-dive-auth/internal/access"
	"go-dive-auth/internal/model"
	"go-dive-auth/pkg/apierror"
)

type tokenVerifier interface {
	VerifyAccess(raw string) (model.AuthClaims, error)
}

type identityLoader interface {
	LoadIdentity(ctx context.Context, userID string) (model.Identity, error)
}

type contextKey string

const (
	authClaimsContextKey contextKey = "auth_claims"
	identityContextKey   contextKey = "auth_identity"
)

type AuthMiddleware struct {
	tokens     tokenVerifier
	identities identityLoader
}

func NewAuthMiddleware(tokens tokenVerifier, identities identityLoader) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, identities: identities}
}

// RequireAuth verifies the bearer token and loads the caller's identity into the request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeAPIError(w, apierror.Unauthorized(apierror.ReasonMissingOrMalformed, "Missing or invalid Authorization header"))
			return
		}

		claims, err := m.tokens.VerifyAccess(token)
		if err != nil {
			writeAPIError(w, err)
			return
		}

		identity, err := m.identities.LoadIdentity(r.Context(), claims.UserID)
		if err != nil {
			writeAPIError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), authClaimsContextKey, claims)
		ctx = context.WithValue(ctx, identityContextKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Require admits the request only when the access policy allows the caller into scope.
// It must run after RequireAuth.
func (m *AuthMiddleware) Require(scope access.Scope) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				writeAPIError(w, apierror.Unauthorized(apierror.ReasonMissingOrMalformed, "Authentication required"))
				return
			}

			if err := access.Decide(scope, identity).Err(); err != nil {
				writeAPIError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func ClaimsFromContext(ctx context.Context) (model.AuthClaims, bool) {
	claims, ok := ctx.Value(authClaimsContextKey).(model.AuthClaims)
	return claims, ok
}

func IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(model.Identity)
	return identity, ok
}

// WithIdentity stores identity in ctx the way RequireAuth does.
func WithIdentity(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}

	token := strings.TrimSpace(header[7:])
	return token, token != ""
}
