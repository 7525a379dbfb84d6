package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/storefront/shop-api/internal/core/domain"
	"github.com/storefront/shop-api/internal/core/ports"
)

type stubProductService struct {
	products []*domain.Product
	created  ports.ProductInput
}

func (s *stubProductService) Get(_ context.Context, id string) (*domain.Product, error) {
	for _, p := range s.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func (s *stubProductService) List(context.Context) ([]*domain.Product, error) {
	return s.products, nil
}

func (s *stubProductService) Create(_ context.Context, in ports.ProductInput) (*domain.Product, error) {
	s.created = in
	return &domain.Product{ID: "p9", Name: in.Name, Price: in.Price, Stock: in.Stock}, nil
}

func (s *stubProductService) Update(ctx context.Context, id string, in ports.ProductInput) (*domain.Product, error) {
	return s.Get(ctx, id)
}

func (s *stubProductService) Delete(ctx context.Context, id string) (*domain.Product, error) {
	return s.Get(ctx, id)
}

func TestProductHandler_ListEmpty(t *testing.T) {
	e := newTestEcho()
	h := NewProductHandler(&stubProductService{})

	c, rec := newJSONContext(e, http.MethodGet, "/products", "")
	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Body.String() != "{\"products\":[]}\n" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestProductHandler_GetNotFound(t *testing.T) {
	e := newTestEcho()
	h := NewProductHandler(&stubProductService{})

	c, _ := newJSONContext(e, http.MethodGet, "/products/nope", "")
	c.SetParamNames("id")
	c.SetParamValues("nope")
	if err := h.Get(c); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestProductHandler_Create(t *testing.T) {
	e := newTestEcho()
	stub := &stubProductService{}
	h := NewProductHandler(stub)

	c, rec := newJSONContext(e, http.MethodPost, "/products", `{"name":"Mug","price":10,"stock":5,"image_url":"https://img.example.com/mug.png"}`)
	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if stub.created.Name != "Mug" || stub.created.Price != 10 || stub.created.Stock != 5 {
		t.Fatalf("unexpected input: %+v", stub.created)
	}

	c, _ = newJSONContext(e, http.MethodPost, "/products", `{"name":"Mug","price":-1}`)
	if err := h.Create(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for negative price, got %v", err)
	}
}
