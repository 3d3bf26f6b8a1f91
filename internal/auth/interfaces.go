package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zheli/invoice-bun/internal/user"
)

// TokenService defines the interface for bearer token creation and validation.
// The production implementation is JWTService (HS256 with a shared secret).
type TokenService interface {
	CreateToken(userID uuid.UUID, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// IdentityProvider abstracts the third-party login flow (Google in production)
type IdentityProvider interface {
	AuthCodeURL(state string) string
	FetchProfile(ctx context.Context, code string) (*Profile, error)
}

// UserLoader resolves a token subject to a user record
type UserLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}
