package middleware

import (
	"net/http"

	"maxnotes/application/services"
	"maxnotes/pkg/auth"
	"maxnotes/pkg/common"

	"go.uber.org/zap"
)

// Authenticate validates the bearer token and binds the caller to the
// active session. A token issued for a previous session's account is
// rejected: writes must never land in another account's collection.
func Authenticate(tokens *auth.TokenService, session *services.SessionController, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing authorization header")
				return
			}

			claims, err := tokens.Validate(header)
			if err != nil {
				logger.Debug("token rejected", zap.Error(err))
				common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
				return
			}

			identity := session.Identity()
			if identity == nil {
				common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "no active session")
				return
			}
			if identity.ID != claims.UserID {
				logger.Warn("token scope does not match active session",
					zap.String("tokenSubject", claims.UserID),
				)
				common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "token does not match active session")
				return
			}

			user := &auth.UserContext{
				UserID:      claims.UserID,
				Email:       claims.Email,
				DisplayName: claims.DisplayName,
			}
			ctx := auth.SetUserInContext(r.Context(), user)
			ctx = common.WithUserID(ctx, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
