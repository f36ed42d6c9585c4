package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"maxnotes/infrastructure/persistence/memory"
	"maxnotes/pkg/auth"
	pkgerrors "maxnotes/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type authFixture struct {
	handler *AuthHandler
	service *memory.AuthService
	tokens  *auth.TokenService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	logger := zap.NewNop()
	service := memory.NewAuthService(logger)
	tokens, err := auth.NewTokenService("test-secret-key", "maxnotes", time.Hour)
	require.NoError(t, err)

	handler := NewAuthHandler(
		service,
		tokens,
		auth.NewLoginLimiter(3, time.Minute),
		pkgerrors.NewErrorHandler(logger),
		logger,
	)
	return &authFixture{handler: handler, service: service, tokens: tokens}
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)
	return envelope.Data
}

func TestAuthHandler_SignUpIssuesValidToken(t *testing.T) {
	fx := newAuthFixture(t)
	rec := httptest.NewRecorder()

	fx.handler.SignUp(rec, postJSON("/api/v1/auth/signup",
		`{"email":"alice@example.com","password":"s3cret-pass","display_name":"Alice"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeResponse(t, rec)
	assert.Equal(t, "alice@example.com", data["email"])

	claims, err := fx.tokens.Validate(data["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, data["user_id"], claims.UserID)
}

func TestAuthHandler_SignUpRejectsShortPassword(t *testing.T) {
	fx := newAuthFixture(t)
	rec := httptest.NewRecorder()

	fx.handler.SignUp(rec, postJSON("/api/v1/auth/signup",
		`{"email":"alice@example.com","password":"short","display_name":"Alice"}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandler_LoginWithBadCredentialsIsUnauthorized(t *testing.T) {
	fx := newAuthFixture(t)
	_, err := fx.service.SignUp(context.Background(), "alice@example.com", "s3cret-pass", "Alice")
	require.NoError(t, err)
	require.NoError(t, fx.service.Logout(context.Background()))

	rec := httptest.NewRecorder()
	fx.handler.Login(rec, postJSON("/api/v1/auth/login",
		`{"email":"alice@example.com","password":"wrong-pass"}`))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandler_LoginSucceedsAndResetsLimiter(t *testing.T) {
	fx := newAuthFixture(t)
	_, err := fx.service.SignUp(context.Background(), "alice@example.com", "s3cret-pass", "Alice")
	require.NoError(t, err)
	require.NoError(t, fx.service.Logout(context.Background()))

	// Two failures, then a success, then two more attempts stay allowed
	// because the success cleared the window.
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		fx.handler.Login(rec, postJSON("/api/v1/auth/login",
			`{"email":"alice@example.com","password":"wrong-pass"}`))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := httptest.NewRecorder()
	fx.handler.Login(rec, postJSON("/api/v1/auth/login",
		`{"email":"alice@example.com","password":"s3cret-pass"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	fx.handler.Login(rec, postJSON("/api/v1/auth/login",
		`{"email":"alice@example.com","password":"s3cret-pass"}`))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthHandler_LoginIsRateLimited(t *testing.T) {
	fx := newAuthFixture(t)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		fx.handler.Login(rec, postJSON("/api/v1/auth/login",
			`{"email":"alice@example.com","password":"wrong-pass"}`))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := httptest.NewRecorder()
	fx.handler.Login(rec, postJSON("/api/v1/auth/login",
		`{"email":"alice@example.com","password":"wrong-pass"}`))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestAuthHandler_LoginRejectsMalformedBody(t *testing.T) {
	fx := newAuthFixture(t)
	rec := httptest.NewRecorder()

	fx.handler.Login(rec, postJSON("/api/v1/auth/login", `{"email": `))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandler_Logout(t *testing.T) {
	fx := newAuthFixture(t)
	_, err := fx.service.SignUp(context.Background(), "alice@example.com", "s3cret-pass", "Alice")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	fx.handler.Logout(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, fx.service.CurrentIdentity())
}
