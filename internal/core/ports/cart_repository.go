package ports

import (
	"context"

	"github.com/storefront/shop-api/internal/core/domain"
)

// CartRepository persists one cart document per user.
type CartRepository interface {
	// FindByUserID returns domain.ErrCartNotFound when the user has no cart.
	FindByUserID(ctx context.Context, userID string) (*domain.Cart, error)
	// Save writes the whole cart. A cart with Version 0 is inserted, otherwise
	// it replaces the stored document only if the stored version still equals
	// cart.Version. Either mismatch returns domain.ErrCartConflict. On success
	// cart.Version is advanced.
	Save(ctx context.Context, cart *domain.Cart) error
	// DeleteByUserID returns domain.ErrCartNotFound when nothing was deleted.
	DeleteByUserID(ctx context.Context, userID string) error
}

// IdempotencyStore remembers caller supplied request keys for a while.
type IdempotencyStore interface {
	// Claim stores fingerprint under scope+key and returns true the first time
	// the key is seen. Later calls return false and the fingerprint stored by
	// the first claim.
	Claim(ctx context.Context, scope, key, fingerprint string) (claimed bool, stored string, err error)
	Release(ctx context.Context, scope, key string) error
}

// KeyedRunner runs fn so that calls sharing a key never overlap.
type KeyedRunner interface {
	Do(ctx context.Context, key string, fn func(ctx context.Context) error) error
}
