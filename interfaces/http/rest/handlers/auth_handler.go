package handlers

import (
	"net/http"

	"maxnotes/application/ports"
	"maxnotes/pkg/auth"
	"maxnotes/pkg/common"
	pkgerrors "maxnotes/pkg/errors"
	"maxnotes/pkg/utils"

	"go.uber.org/zap"
)

// AuthHandler handles account endpoints
type AuthHandler struct {
	authService ports.AuthService
	tokens      *auth.TokenService
	limiter     *auth.LoginLimiter
	errors      *pkgerrors.ErrorHandler
	logger      *zap.Logger
}

// NewAuthHandler creates an auth handler
func NewAuthHandler(
	authService ports.AuthService,
	tokens *auth.TokenService,
	limiter *auth.LoginLimiter,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		tokens:      tokens,
		limiter:     limiter,
		errors:      errorHandler,
		logger:      logger,
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type signupRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"display_name" validate:"max=100"`
}

type sessionResponse struct {
	Token       string `json:"token"`
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}

// Login authenticates and issues a session token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow(r.RemoteAddr) {
		common.RespondError(w, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "too many login attempts")
		return
	}

	var req loginRequest
	if err := common.ParseJSONBody(w, r, &req, 1<<20); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	if _, err := h.authService.Login(r.Context(), req.Email, req.Password); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.limiter.Reset(r.RemoteAddr)
	h.respondWithSession(w, r)
}

// SignUp creates an account and issues a session token
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := common.ParseJSONBody(w, r, &req, 1<<20); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	if _, err := h.authService.SignUp(r.Context(), req.Email, req.Password, req.DisplayName); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondWithSession(w, r)
}

// Logout ends the session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context()); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (h *AuthHandler) respondWithSession(w http.ResponseWriter, r *http.Request) {
	identity := h.authService.CurrentIdentity()
	if identity == nil {
		h.errors.Handle(w, r, pkgerrors.NewInternalError("login succeeded but no identity is present"))
		return
	}

	token, err := h.tokens.Issue(identity.ID, identity.Email, identity.DisplayName)
	if err != nil {
		h.errors.Handle(w, r, pkgerrors.NewInternalError("failed to issue session token"))
		return
	}

	common.RespondJSON(w, http.StatusOK, sessionResponse{
		Token:       token,
		UserID:      identity.ID,
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
	})
}
