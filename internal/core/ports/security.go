package ports

import (
	"context"
	"time"

	"github.com/storefront/shop-api/internal/core/domain"
)

// PasswordHasher is a one-way hash-and-compare primitive.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Compare(plaintext, hash string) bool
}

// TokenSigner issues and verifies signed access tokens.
type TokenSigner interface {
	Sign(claims domain.Claims) (token string, expiresAt time.Time, err error)
	Verify(token string) (*domain.Claims, error)
}

// TokenRevoker tracks tokens invalidated before their expiry.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
