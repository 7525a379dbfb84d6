package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/storefront/shop-api/internal/core/domain"
	"github.com/storefront/shop-api/internal/core/ports"
	"github.com/storefront/shop-api/internal/pkg/metrics"
	"github.com/storefront/shop-api/pkg/logger"
)

const (
	defaultMaxRetries = 3
	idempotencyScope  = "cart_add"
)

// inlineRunner runs fn directly on the caller's goroutine.
type inlineRunner struct{}

func (inlineRunner) Do(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// CartOptions tunes the cart service. Zero values select the defaults.
type CartOptions struct {
	// Runner serialises mutations per user. Nil runs them inline.
	Runner ports.KeyedRunner
	// Idempotency de-duplicates add requests carrying a key. Nil disables it.
	Idempotency ports.IdempotencyStore
	// MaxRetries bounds the attempts made after a version conflict.
	MaxRetries int
}

// CartService owns the lifecycle of carts and their line items.
type CartService struct {
	carts      ports.CartRepository
	products   ports.ProductRepository
	runner     ports.KeyedRunner
	dedup      ports.IdempotencyStore
	maxRetries int
	log        zerolog.Logger
	now        func() time.Time
}

func NewCartService(carts ports.CartRepository, products ports.ProductRepository, opts CartOptions, log zerolog.Logger) *CartService {
	s := &CartService{
		carts:      carts,
		products:   products,
		runner:     opts.Runner,
		dedup:      opts.Idempotency,
		maxRetries: opts.MaxRetries,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
	if s.runner == nil {
		s.runner = inlineRunner{}
	}
	if s.maxRetries <= 0 {
		s.maxRetries = defaultMaxRetries
	}
	return s
}

// GetCart returns the stored cart, or an unsaved empty cart when the user has none.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.carts.FindByUserID(ctx, userID)
	if errors.Is(err, domain.ErrCartNotFound) {
		metrics.CartOperationsTotal.WithLabelValues("get", "empty").Inc()
		return &domain.Cart{UserID: userID, Items: []domain.LineItem{}}, nil
	}
	if err != nil {
		metrics.CartOperationsTotal.WithLabelValues("get", resultLabel(err)).Inc()
		return nil, err
	}
	metrics.CartOperationsTotal.WithLabelValues("get", "ok").Inc()
	return cart, nil
}

// AddItem adds quantity of a product, merging into an existing line. Two
// identical calls add twice; callers that retry should send an idempotency key.
func (s *CartService) AddItem(ctx context.Context, in ports.AddItemInput) (*domain.Cart, error) {
	if in.Quantity <= 0 {
		metrics.CartOperationsTotal.WithLabelValues("add", "invalid").Inc()
		return nil, domain.Invalid("quantity must be a positive integer")
	}
	if in.ProductID == "" {
		metrics.CartOperationsTotal.WithLabelValues("add", "invalid").Inc()
		return nil, domain.Invalid("product_id is required")
	}

	product, err := s.products.FindByID(ctx, in.ProductID)
	if err != nil {
		metrics.CartOperationsTotal.WithLabelValues("add", resultLabel(err)).Inc()
		return nil, err
	}

	if s.dedup != nil && in.IdempotencyKey != "" {
		fingerprint := in.ProductID + ":" + strconv.Itoa(in.Quantity)
		first, stored, err := s.dedup.Claim(ctx, idempotencyScope+":"+in.UserID, in.IdempotencyKey, fingerprint)
		switch {
		case err != nil:
			s.logFor(ctx, in.UserID).Warn().Err(err).Msg("idempotency check failed, processing anyway")
		case !first && stored != fingerprint:
			metrics.CartOperationsTotal.WithLabelValues("add", "invalid").Inc()
			return nil, domain.Invalid("idempotency key was already used for a different request")
		case !first:
			s.logFor(ctx, in.UserID).Debug().Str("idempotency_key", in.IdempotencyKey).Msg("add-to-cart replay skipped")
			metrics.CartOperationsTotal.WithLabelValues("add", "replay").Inc()
			return s.replayedCart(ctx, in.UserID)
		}
	}

	cart, err := s.mutate(ctx, "add", in.UserID, true, func(c *domain.Cart) (bool, error) {
		c.AddItem(product, in.Quantity)
		return true, nil
	})
	if err != nil {
		if s.dedup != nil && in.IdempotencyKey != "" {
			if relErr := s.dedup.Release(ctx, idempotencyScope+":"+in.UserID, in.IdempotencyKey); relErr != nil {
				s.logFor(ctx, in.UserID).Warn().Err(relErr).Msg("failed to release idempotency key")
			}
		}
		return nil, err
	}

	s.logFor(ctx, in.UserID).Info().
		Str("product_id", in.ProductID).
		Int("quantity", in.Quantity).
		Msg("item added to cart")
	return cart, nil
}

// replayedCart reads the cart behind the per-user runner, so a replay that
// races the original request on this instance observes its outcome.
func (s *CartService) replayedCart(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart *domain.Cart
	err := s.runner.Do(ctx, userID, func(ctx context.Context) error {
		var err error
		cart, err = s.GetCart(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// SetItemQuantity replaces the quantity of an existing line, clamped to at least 1.
func (s *CartService) SetItemQuantity(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	return s.mutate(ctx, "set_quantity", userID, false, func(c *domain.Cart) (bool, error) {
		if err := c.SetQuantity(productID, quantity); err != nil {
			return false, err
		}
		return true, nil
	})
}

// RemoveItem drops a line. Removing a product that is not in the cart returns
// the cart unchanged.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	return s.mutate(ctx, "remove", userID, false, func(c *domain.Cart) (bool, error) {
		return c.RemoveItem(productID), nil
	})
}

// ClearCart deletes the cart document. GetCart afterwards returns an empty cart.
func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	start := time.Now()
	err := s.runner.Do(ctx, userID, func(ctx context.Context) error {
		return s.carts.DeleteByUserID(ctx, userID)
	})
	metrics.CartOperationDuration.WithLabelValues("clear").Observe(time.Since(start).Seconds())
	metrics.CartOperationsTotal.WithLabelValues("clear", resultLabel(err)).Inc()
	if err != nil {
		return err
	}
	s.logFor(ctx, userID).Info().Msg("cart cleared")
	return nil
}

// mutate runs a read-modify-write cycle on the user's cart. The write is
// conditional on the version read, and the whole cycle is retried when
// another writer got there first. fn reports whether it changed the cart;
// unchanged carts are returned without a write.
func (s *CartService) mutate(
	ctx context.Context,
	op, userID string,
	create bool,
	fn func(*domain.Cart) (bool, error),
) (*domain.Cart, error) {
	start := time.Now()
	var out *domain.Cart

	err := s.runner.Do(ctx, userID, func(ctx context.Context) error {
		for attempt := 1; ; attempt++ {
			cart, err := s.carts.FindByUserID(ctx, userID)
			switch {
			case errors.Is(err, domain.ErrCartNotFound) && create:
				cart = domain.NewCart(userID, s.now())
			case err != nil:
				return err
			}

			changed, err := fn(cart)
			if err != nil {
				return err
			}
			if !changed {
				out = cart
				return nil
			}

			cart.UpdatedAt = s.now()
			err = s.carts.Save(ctx, cart)
			if err == nil {
				out = cart
				return nil
			}
			if !errors.Is(err, domain.ErrCartConflict) || attempt >= s.maxRetries {
				return err
			}

			metrics.CartWriteConflictsTotal.Inc()
			s.logFor(ctx, userID).Debug().Str("op", op).Int("attempt", attempt).Msg("cart version conflict, retrying")
		}
	})

	metrics.CartOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	metrics.CartOperationsTotal.WithLabelValues(op, resultLabel(err)).Inc()
	if err != nil {
		return nil, err
	}
	return out, nil
}

// logFor prefers the request logger, which already carries the user id.
func (s *CartService) logFor(ctx context.Context, userID string) *zerolog.Logger {
	l := logger.FromContext(ctx, s.log.With().Str(logger.FieldUserID, userID).Logger())
	return &l
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrCartConflict):
		return "conflict"
	default:
		return "error"
	}
}
