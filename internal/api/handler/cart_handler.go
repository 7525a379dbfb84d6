package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/storefront/shop-api/internal/core/domain"
	"github.com/storefront/shop-api/internal/core/ports"
)

// HeaderIdempotencyKey lets clients de-duplicate add-to-cart retries.
const HeaderIdempotencyKey = "Idempotency-Key"

// CartHandler serves the authenticated user's cart. The owner is always taken
// from the token.
type CartHandler struct {
	service ports.CartService
}

func NewCartHandler(service ports.CartService) *CartHandler {
	return &CartHandler{service: service}
}

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  *int   `json:"quantity,omitempty"`
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type cartResponse struct {
	UserID    string            `json:"user_id"`
	Items     []domain.LineItem `json:"items"`
	Total     float64           `json:"total"`
	CreatedAt *time.Time        `json:"created_at,omitempty"`
	UpdatedAt *time.Time        `json:"updated_at,omitempty"`
}

func toCartResponse(cart *domain.Cart) cartResponse {
	items := cart.Items
	if items == nil {
		items = []domain.LineItem{}
	}
	resp := cartResponse{UserID: cart.UserID, Items: items, Total: cart.Total()}
	if !cart.CreatedAt.IsZero() {
		resp.CreatedAt = &cart.CreatedAt
	}
	if !cart.UpdatedAt.IsZero() {
		resp.UpdatedAt = &cart.UpdatedAt
	}
	return resp
}

// Get returns the caller's cart, empty when none exists.
//
// @Summary      Get cart
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  cartResponse
// @Failure      401  {object}  map[string]string
// @Router       /cart [get]
func (h *CartHandler) Get(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	cart, err := h.service.GetCart(c.Request().Context(), claims.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCartResponse(cart))
}

// AddItem adds a product to the cart, merging with an existing line.
//
// @Summary      Add item to cart
// @Tags         cart
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string          false  "De-duplicates retried requests"
// @Param        body             body      addItemRequest  true   "Product and quantity (default 1)"
// @Success      200              {object}  cartResponse
// @Failure      400              {object}  map[string]string
// @Failure      401              {object}  map[string]string
// @Failure      404              {object}  map[string]string
// @Failure      409              {object}  map[string]string
// @Router       /cart [post]
func (h *CartHandler) AddItem(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req addItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	qty := domain.DefaultQuantity
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	cart, err := h.service.AddItem(c.Request().Context(), ports.AddItemInput{
		UserID:         claims.UserID,
		ProductID:      req.ProductID,
		Quantity:       qty,
		IdempotencyKey: c.Request().Header.Get(HeaderIdempotencyKey),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCartResponse(cart))
}

// SetQuantity replaces the quantity of a line item. Values below 1 become 1.
//
// @Summary      Set item quantity
// @Tags         cart
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        productId  path      string              true  "Product ID"
// @Param        body       body      setQuantityRequest  true  "New quantity"
// @Success      200        {object}  cartResponse
// @Failure      400        {object}  map[string]string
// @Failure      404        {object}  map[string]string
// @Router       /cart/{productId} [put]
func (h *CartHandler) SetQuantity(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req setQuantityRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	cart, err := h.service.SetItemQuantity(c.Request().Context(), claims.UserID, c.Param("productId"), *req.Quantity)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCartResponse(cart))
}

// RemoveItem drops a product from the cart. Removing an absent product is a no-op.
//
// @Summary      Remove item from cart
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Param        productId  path      string  true  "Product ID"
// @Success      200        {object}  cartResponse
// @Failure      404        {object}  map[string]string
// @Router       /cart/{productId} [delete]
func (h *CartHandler) RemoveItem(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	cart, err := h.service.RemoveItem(c.Request().Context(), claims.UserID, c.Param("productId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCartResponse(cart))
}

// Clear deletes the caller's cart.
//
// @Summary      Clear cart
// @Tags         cart
// @Security     BearerAuth
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /cart [delete]
func (h *CartHandler) Clear(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	if err := h.service.ClearCart(c.Request().Context(), claims.UserID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
