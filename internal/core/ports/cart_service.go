package ports

import (
	"context"

	"github.com/storefront/shop-api/internal/core/domain"
)

// AddItemInput is the add-to-cart request. Quantity must be positive; the
// transport layer substitutes domain.DefaultQuantity when it is omitted.
type AddItemInput struct {
	UserID         string
	ProductID      string
	Quantity       int
	IdempotencyKey string
}

// CartService defines the cart use cases. UserID always comes from the
// verified token, never from the request path or body.
type CartService interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, in AddItemInput) (*domain.Cart, error)
	SetItemQuantity(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error)
	ClearCart(ctx context.Context, userID string) error
}
