package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/storefront/shop-api/internal/core/domain"
	"github.com/storefront/shop-api/internal/core/ports"
)

type stubCartService struct {
	cart    *domain.Cart
	err     error
	lastAdd ports.AddItemInput
	lastQty int
	lastID  string
	cleared string
}

func (s *stubCartService) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	if s.cart == nil {
		return &domain.Cart{UserID: userID, Items: []domain.LineItem{}}, s.err
	}
	return s.cart, s.err
}

func (s *stubCartService) AddItem(_ context.Context, in ports.AddItemInput) (*domain.Cart, error) {
	s.lastAdd = in
	return s.cart, s.err
}

func (s *stubCartService) SetItemQuantity(_ context.Context, _, productID string, quantity int) (*domain.Cart, error) {
	s.lastID, s.lastQty = productID, quantity
	return s.cart, s.err
}

func (s *stubCartService) RemoveItem(_ context.Context, _, productID string) (*domain.Cart, error) {
	s.lastID = productID
	return s.cart, s.err
}

func (s *stubCartService) ClearCart(_ context.Context, userID string) error {
	s.cleared = userID
	return s.err
}

func aliceCart() *domain.Cart {
	return &domain.Cart{
		UserID: "alice",
		Items: []domain.LineItem{
			{ProductID: "p1", Name: "Mug", Price: 10, Quantity: 3},
			{ProductID: "p2", Name: "Tee", Price: 5.5, Quantity: 2},
		},
	}
}

func TestCartHandler_Get_EmptyCart(t *testing.T) {
	e := newTestEcho()
	h := NewCartHandler(&stubCartService{})

	c, rec := newJSONContext(e, http.MethodGet, "/cart", "")
	authenticate(c, "alice", domain.RoleUser)
	if err := h.Get(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp cartResponse
	decode(t, rec, &resp)
	if resp.UserID != "alice" || resp.Items == nil || len(resp.Items) != 0 || resp.Total != 0 {
		t.Fatalf("unexpected empty cart: %+v", resp)
	}
}

func TestCartHandler_AddItem_DefaultsQuantity(t *testing.T) {
	e := newTestEcho()
	stub := &stubCartService{cart: aliceCart()}
	h := NewCartHandler(stub)

	c, rec := newJSONContext(e, http.MethodPost, "/cart", `{"product_id":"p1"}`)
	c.Request().Header.Set(HeaderIdempotencyKey, "retry-1")
	authenticate(c, "alice", domain.RoleUser)
	if err := h.AddItem(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	want := ports.AddItemInput{UserID: "alice", ProductID: "p1", Quantity: domain.DefaultQuantity, IdempotencyKey: "retry-1"}
	if stub.lastAdd != want {
		t.Fatalf("expected %+v, got %+v", want, stub.lastAdd)
	}
	var resp cartResponse
	decode(t, rec, &resp)
	if resp.Total != 41 {
		t.Fatalf("expected total 41, got %v", resp.Total)
	}
}

func TestCartHandler_AddItem_ExplicitQuantityPassedThrough(t *testing.T) {
	e := newTestEcho()
	stub := &stubCartService{cart: aliceCart()}
	h := NewCartHandler(stub)

	c, _ := newJSONContext(e, http.MethodPost, "/cart", `{"product_id":"p1","quantity":0}`)
	authenticate(c, "alice", domain.RoleUser)
	_ = h.AddItem(c)

	if stub.lastAdd.Quantity != 0 {
		t.Fatalf("an explicit zero must reach the service for rejection, got %d", stub.lastAdd.Quantity)
	}
}

func TestCartHandler_AddItem_RequiresProduct(t *testing.T) {
	e := newTestEcho()
	h := NewCartHandler(&stubCartService{})

	c, _ := newJSONContext(e, http.MethodPost, "/cart", `{"quantity":2}`)
	authenticate(c, "alice", domain.RoleUser)
	if err := h.AddItem(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCartHandler_SetQuantity(t *testing.T) {
	e := newTestEcho()
	stub := &stubCartService{cart: aliceCart()}
	h := NewCartHandler(stub)

	c, rec := newJSONContext(e, http.MethodPut, "/cart/p1", `{"quantity":0}`)
	c.SetParamNames("productId")
	c.SetParamValues("p1")
	authenticate(c, "alice", domain.RoleUser)
	if err := h.SetQuantity(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || stub.lastID != "p1" || stub.lastQty != 0 {
		t.Fatalf("unexpected call: code=%d id=%s qty=%d", rec.Code, stub.lastID, stub.lastQty)
	}

	c, _ = newJSONContext(e, http.MethodPut, "/cart/p1", `{}`)
	c.SetParamNames("productId")
	c.SetParamValues("p1")
	authenticate(c, "alice", domain.RoleUser)
	if err := h.SetQuantity(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for missing quantity, got %v", err)
	}
}

func TestCartHandler_RemoveItem_NotFound(t *testing.T) {
	e := newTestEcho()
	h := NewCartHandler(&stubCartService{err: domain.ErrCartNotFound})

	c, _ := newJSONContext(e, http.MethodDelete, "/cart/p1", "")
	c.SetParamNames("productId")
	c.SetParamValues("p1")
	authenticate(c, "alice", domain.RoleUser)
	if err := h.RemoveItem(c); !errors.Is(err, domain.ErrCartNotFound) {
		t.Fatalf("expected ErrCartNotFound, got %v", err)
	}
}

func TestCartHandler_Clear(t *testing.T) {
	e := newTestEcho()
	stub := &stubCartService{}
	h := NewCartHandler(stub)

	c, rec := newJSONContext(e, http.MethodDelete, "/cart", "")
	authenticate(c, "alice", domain.RoleUser)
	if err := h.Clear(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent || stub.cleared != "alice" {
		t.Fatalf("unexpected clear: code=%d user=%q", rec.Code, stub.cleared)
	}
}
