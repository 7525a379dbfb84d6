package ports

import (
	"context"

	"github.com/storefront/shop-api/internal/core/domain"
)

// ProductInput carries the writable product fields.
type ProductInput struct {
	Name        string
	Description string
	Price       float64
	Category    string
	Stock       int
	ImageURL    string
}

type ProductService interface {
	Get(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context) ([]*domain.Product, error)
	Create(ctx context.Context, in ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id string, in ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id string) (*domain.Product, error)
}
