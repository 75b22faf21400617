package domain

import (
	"time"

	"github.com/google/uuid"
)

// CartItem represents one product+variant line in a user's cart.
// Quantity is always >= 1; a line that would drop below 1 is removed instead.
type CartItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	Size      string    `json:"size" db:"size"`
	Color     string    `json:"color" db:"color"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CartLine is a cart item joined to its live product record. Unit price and
// stock reflect the catalog NOW, not any earlier point in time; cart totals
// are always computed from live prices, unlike order totals which are frozen
// at checkout.
type CartLine struct {
	CartItem
	ProductName string  `json:"product_name"`
	UnitPrice   float64 `json:"unit_price"`
	Stock       int     `json:"stock"`
	Image       string  `json:"image,omitempty"`
	ProviderID  uuid.UUID `json:"provider_id"`
}

// Subtotal returns the live price of this line.
func (l *CartLine) Subtotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

// Cart is a user's current cart with its live subtotal.
type Cart struct {
	UserID uuid.UUID  `json:"user_id"`
	Items  []CartLine `json:"items"`
	Total  float64    `json:"total"`
}
