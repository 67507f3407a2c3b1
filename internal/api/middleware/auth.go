package middleware

import (
	"context"
	"errors"
	"net/http"

	"authgate/internal/app/service"
	"authgate/internal/common"
	"authgate/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const userCtxKey contextKey = "currentUser"

func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userCtxKey, user)
}

func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userCtxKey).(*model.User)
	return user, ok
}

// Authenticator extracts the bearer token, validates it and resolves the
// subject to a user, which is stored in the request context for the
// handlers downstream. Expired and malformed tokens both answer 401; the
// distinction stays in the error chain for logging and tests.
func Authenticator(auth *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := jwtauth.TokenFromHeader(r)
			if tokenString == "" {
				common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
				return
			}

			user, err := auth.CurrentUser(r.Context(), tokenString)
			if err != nil {
				switch {
				case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrExpiredToken):
					common.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
				case errors.Is(err, common.ErrUserNotFound):
					common.RespondWithError(w, http.StatusUnauthorized, "User does not exist")
				default:
					common.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// AdminOnly guards routes behind an exact admin role match.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
			return
		}
		if user.Role != model.RoleAdmin {
			common.RespondWithError(w, http.StatusForbidden, "Admins only")
			return
		}
		next.ServeHTTP(w, r)
	})
}
