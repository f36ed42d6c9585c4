package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(t *testing.T, ttl time.Duration) *TokenService {
	t.Helper()
	svc, err := NewTokenService("test-secret-key", "maxnotes", ttl)
	require.NoError(t, err)
	return svc
}

func TestNewTokenService_RequiresSecret(t *testing.T) {
	_, err := NewTokenService("", "maxnotes", time.Hour)
	assert.Error(t, err)
}

func TestTokenService_IssueAndValidate(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)

	token, err := svc.Issue("user-1", "alice@example.com", "Alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "Alice", claims.DisplayName)
	assert.Equal(t, "maxnotes", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenService_ValidateStripsBearerPrefix(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)

	token, err := svc.Issue("user-1", "alice@example.com", "")
	require.NoError(t, err)

	claims, err := svc.Validate("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestTokenService_ValidateRejectsMissingToken(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)

	_, err := svc.Validate("")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = svc.Validate("Bearer ")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestTokenService_ValidateRejectsExpiredToken(t *testing.T) {
	svc := newTestTokenService(t, -time.Minute)

	token, err := svc.Issue("user-1", "alice@example.com", "")
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenService_ValidateRejectsForeignSignature(t *testing.T) {
	issuing, err := NewTokenService("secret-a", "maxnotes", time.Hour)
	require.NoError(t, err)
	validating, err := NewTokenService("secret-b", "maxnotes", time.Hour)
	require.NoError(t, err)

	token, err := issuing.Issue("user-1", "alice@example.com", "")
	require.NoError(t, err)

	_, err = validating.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestTokenService_ValidateRejectsWrongIssuer(t *testing.T) {
	issuing, err := NewTokenService("test-secret-key", "other-app", time.Hour)
	require.NoError(t, err)
	validating := newTestTokenService(t, time.Hour)

	token, err := issuing.Issue("user-1", "alice@example.com", "")
	require.NoError(t, err)

	_, err = validating.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestTokenService_ValidateRejectsGarbage(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)

	_, err := svc.Validate("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestUserContext_RoundTrip(t *testing.T) {
	ctx := SetUserInContext(context.Background(), &UserContext{
		UserID: "user-1",
		Email:  "alice@example.com",
	})

	user, err := GetUserFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.UserID)

	_, err = GetUserFromContext(context.Background())
	assert.Error(t, err)
}
