package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/zheli/invoice-bun/internal/httputil"
	"github.com/zheli/invoice-bun/internal/user"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const currentUserContextKey ContextKey = "current_user"

// Middleware handles authentication for protected routes
type Middleware struct {
	tokenService TokenService
	users        UserLoader
}

func NewMiddleware(tokenService TokenService, users UserLoader) *Middleware {
	return &Middleware{tokenService: tokenService, users: users}
}

// RequireUser validates the bearer token and resolves it to an active user.
// A non-owner of a valid token sees the same errors as the original system:
// undecodable or expired tokens yield 403, an unknown subject 404, an
// inactive account 400.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.RespondErrorWithCode(w, "not authenticated", httputil.CodeMissingAuth, http.StatusForbidden)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			httputil.RespondErrorWithCode(w, "invalid authorization header format", httputil.CodeInvalidAuthHeader, http.StatusForbidden)
			return
		}

		claims, err := m.tokenService.VerifyToken(parts[1])
		if err != nil {
			if errors.Is(err, ErrExpiredToken) {
				httputil.RespondErrorWithCode(w, "token has expired", httputil.CodeTokenExpired, http.StatusForbidden)
				return
			}
			httputil.RespondErrorWithCode(w, "could not validate credentials", httputil.CodeInvalidToken, http.StatusForbidden)
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			httputil.RespondErrorWithCode(w, "could not validate credentials", httputil.CodeInvalidToken, http.StatusForbidden)
			return
		}

		currentUser, err := m.users.GetByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				httputil.RespondErrorWithCode(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
				return
			}
			httputil.RespondErrorWithCode(w, "failed to load user", httputil.CodeInternalError, http.StatusInternalServerError)
			return
		}

		if !currentUser.IsActive {
			httputil.RespondErrorWithCode(w, "inactive user", httputil.CodeInactiveUser, http.StatusBadRequest)
			return
		}

		next.ServeHTTP(w, r.WithContext(NewContextWithUser(r.Context(), currentUser)))
	})
}

// NewContextWithUser returns a context carrying the authenticated user
func NewContextWithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, currentUserContextKey, u)
}

// GetUserFromContext extracts the authenticated user from the request context
func GetUserFromContext(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(currentUserContextKey).(*user.User)
	return u, ok
}
