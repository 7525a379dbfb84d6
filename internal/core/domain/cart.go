package domain

import "time"

// DefaultQuantity is used when an add-to-cart request does not specify one.
const DefaultQuantity = 1

// LineItem is one product in a cart. Name, Price and ImageURL are a snapshot
// taken when the product was first added and are not refreshed afterwards.
type LineItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	ImageURL  string  `json:"image_url,omitempty"`
	Quantity  int     `json:"quantity"`
}

// Cart is the per-user aggregate. Items are unique by ProductID.
// Version is zero for a cart that has never been stored.
type Cart struct {
	ID        string     `json:"id,omitempty"`
	UserID    string     `json:"user_id"`
	Items     []LineItem `json:"items"`
	Version   int64      `json:"-"`
	CreatedAt time.Time  `json:"created_at,omitempty"`
	UpdatedAt time.Time  `json:"updated_at,omitempty"`
}

// NewCart returns an empty, unsaved cart for userID.
func NewCart(userID string, now time.Time) *Cart {
	return &Cart{
		UserID:    userID,
		Items:     []LineItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (c *Cart) indexOf(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Item returns the line item for productID, if present.
func (c *Cart) Item(productID string) (LineItem, bool) {
	if i := c.indexOf(productID); i >= 0 {
		return c.Items[i], true
	}
	return LineItem{}, false
}

// AddItem merges quantity into the existing line for p, or appends a new line
// holding a snapshot of p. Repeated calls accumulate.
func (c *Cart) AddItem(p *Product, quantity int) {
	if i := c.indexOf(p.ID); i >= 0 {
		c.Items[i].Quantity += quantity
		return
	}
	c.Items = append(c.Items, LineItem{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		ImageURL:  p.ImageURL,
		Quantity:  quantity,
	})
}

// SetQuantity replaces the quantity of an existing line. Values below 1 are
// clamped to 1; removal goes through RemoveItem.
func (c *Cart) SetQuantity(productID string, quantity int) error {
	i := c.indexOf(productID)
	if i < 0 {
		return ErrItemNotFound
	}
	if quantity < 1 {
		quantity = 1
	}
	c.Items[i].Quantity = quantity
	return nil
}

// RemoveItem drops the line for productID and reports whether anything changed.
func (c *Cart) RemoveItem(productID string) bool {
	i := c.indexOf(productID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

// Total is the sum of price * quantity across all lines.
func (c *Cart) Total() float64 {
	var total float64
	for _, it := range c.Items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}
