package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/recipebook/api/internal/models"
	"github.com/recipebook/api/internal/services"
	appErr "github.com/recipebook/api/pkg/errors"
	"github.com/recipebook/api/pkg/logger"
)

type userKeyType string

const UserKey userKeyType = "user"

// UserLoader resolves the account behind a verified token.
type UserLoader interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
}

// Auth requires "Authorization: Bearer <token>" (or "Token <token>") naming
// an existing active user, and stores that user in the request context.
// Everything else is rejected with 401 before the handler runs.
func Auth(tokens services.TokenIssuer, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w, "Authentication credentials were not provided.")
				return
			}
			uid, err := tokens.Parse(tokenStr)
			if err != nil {
				unauthorized(w, "Invalid token.")
				return
			}
			u, err := users.GetUser(r.Context(), uid)
			if err != nil {
				if !appErr.IsCode(err, appErr.CodeNotFound) {
					logger.L().Error("auth user lookup failed", zap.Uint("user_id", uid), zap.Error(err))
				}
				unauthorized(w, "Invalid token.")
				return
			}
			if !u.IsActive {
				unauthorized(w, "User inactive or deleted.")
				return
			}

			setLogUser(r.Context(), u.ID)
			ctx := context.WithValue(r.Context(), UserKey, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found {
		return "", false
	}
	switch strings.ToLower(scheme) {
	case "bearer", "token":
	default:
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	writeError(w, http.StatusUnauthorized, string(appErr.CodeUnauthorized), msg)
}

// CurrentUser returns the authenticated user, or nil outside Auth.
func CurrentUser(ctx context.Context) *models.User {
	u, _ := ctx.Value(UserKey).(*models.User)
	return u
}

// GetUserID returns the authenticated user's id, or 0.
func GetUserID(ctx context.Context) uint {
	if u := CurrentUser(ctx); u != nil {
		return u.ID
	}
	return 0
}
