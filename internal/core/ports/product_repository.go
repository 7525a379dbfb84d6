package ports

import (
	"context"

	"github.com/storefront/shop-api/internal/core/domain"
)

// ProductRepository defines catalog persistence. Lookups of unknown or
// malformed ids return domain.ErrProductNotFound.
type ProductRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, limit int) ([]*domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
	// Update replaces the mutable fields and returns the stored document.
	Update(ctx context.Context, p *domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id string) (*domain.Product, error)
}
