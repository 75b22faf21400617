package domain

import (
	"time"

	"github.com/google/uuid"
)

// Payment is the settlement receipt for exactly one order. Its amount must
// equal the parent order's total at creation time.
type Payment struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	OrderID       uuid.UUID     `json:"order_id" db:"order_id"`
	Method        PaymentMethod `json:"payment_method" db:"payment_method"`
	Amount        float64       `json:"amount" db:"amount"`
	TransactionID string        `json:"transaction_id,omitempty" db:"transaction_id"`
	Status        PaymentStatus `json:"status" db:"status"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}
