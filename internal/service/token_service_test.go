package service

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-dive-auth/internal/model"
	"go-dive-auth/pkg/apierror"
)

func newTestTokens(clock *fakeClock) *TokenService {
	return NewTokenService(testSecret, time.Hour, 7*24*time.Hour, WithClock(clock.Now))
}

var tokenUser = model.User{ID: "user-1", Role: model.RoleDiveOperator, IsActive: true}

func TestIssueProducesBearerPair(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: testEpoch}
	pair, err := newTestTokens(clock).Issue(tokenUser)
	require.NoError(t, err)

	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, int64(3600), pair.ExpiresIn)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	claims := &tokenClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(pair.AccessToken, claims)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, model.RoleDiveOperator, claims.Role)
	assert.Equal(t, model.TokenKindAccess, claims.Type)
	assert.Equal(t, testEpoch.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, testEpoch.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)

	refresh := &tokenClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(pair.RefreshToken, refresh)
	require.NoError(t, err)
	assert.Equal(t, model.TokenKindRefresh, refresh.Type)
	assert.Equal(t, testEpoch.Add(7*24*time.Hour).Unix(), refresh.ExpiresAt.Unix())
}

func TestVerifyAccessExpiry(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: testEpoch}
	tokens := newTestTokens(clock)

	pair, err := tokens.Issue(tokenUser)
	require.NoError(t, err)

	claims, err := tokens.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, model.RoleDiveOperator, claims.Role)

	clock.Advance(time.Hour - time.Second)
	_, err = tokens.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)

	clock.Advance(2 * time.Second)
	_, err = tokens.VerifyAccess(pair.AccessToken)
	require.True(t, apierror.HasReason(err, apierror.CodeAuth, apierror.ReasonExpired))
	assert.Contains(t, err.Error(), "Access token has expired")
}

func TestVerifyRefreshExpiry(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: testEpoch}
	tokens := newTestTokens(clock)

	pair, err := tokens.Issue(tokenUser)
	require.NoError(t, err)

	clock.Advance(7*24*time.Hour - time.Second)
	claims, err := tokens.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)

	clock.Advance(2 * time.Second)
	_, err = tokens.VerifyRefresh(pair.RefreshToken)
	require.True(t, apierror.HasReason(err, apierror.CodeAuth, apierror.ReasonExpired))
	assert.Contains(t, err.Error(), "log in again")
}

func TestVerifyAccessFailures(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: testEpoch}
	tokens := newTestTokens(clock)
	pair, err := tokens.Issue(tokenUser)
	require.NoError(t, err)

	other := NewTokenService("another-secret", time.Hour, time.Hour, WithClock(clock.Now))
	forged, err := other.Issue(tokenUser)
	require.NoError(t, err)

	parts := strings.Split(pair.AccessToken, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "user-1", "typ": "access", "exp": testEpoch.Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		reason string
	}{
		{"empty", "", apierror.ReasonMissingOrMalformed},
		{"garbage", "not.a.jwt", apierror.ReasonMissingOrMalformed},
		{"refresh used as access", pair.RefreshToken, apierror.ReasonMissingOrMalformed},
		{"foreign secret", forged.AccessToken, apierror.ReasonInvalidSignature},
		{"tampered signature", tampered, apierror.ReasonInvalidSignature},
		{"alg none", noneToken, apierror.ReasonInvalidSignature},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := tokens.VerifyAccess(tt.token)
			require.True(t, apierror.HasReason(err, apierror.CodeAuth, tt.reason), "got %v", err)
		})
	}
}

func TestVerifyRefreshFailures(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: testEpoch}
	tokens := newTestTokens(clock)
	pair, err := tokens.Issue(tokenUser)
	require.NoError(t, err)

	_, err = tokens.VerifyRefresh("  ")
	require.True(t, apierror.HasReason(err, apierror.CodeValidation, apierror.ReasonMissing))

	_, err = tokens.VerifyRefresh(pair.AccessToken)
	require.True(t, apierror.HasReason(err, apierror.CodeAuth, apierror.ReasonInvalid))

	other := NewTokenService("another-secret", time.Hour, time.Hour, WithClock(clock.Now))
	forged, err := other.Issue(tokenUser)
	require.NoError(t, err)
	_, err = tokens.VerifyRefresh(forged.RefreshToken)
	require.True(t, apierror.HasReason(err, apierror.CodeAuth, apierror.ReasonInvalid))
}
