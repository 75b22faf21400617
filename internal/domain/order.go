package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus represents the fulfillment state of an order
type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// CanTransitionTo reports whether the fulfillment state machine allows moving
// from s to next. Transitions are forward-only: processing -> shipped ->
// delivered, with cancelled reachable from processing or shipped. Delivered
// and cancelled are terminal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusProcessing:
		return next == OrderStatusShipped || next == OrderStatusCancelled
	case OrderStatusShipped:
		return next == OrderStatusDelivered || next == OrderStatusCancelled
	default:
		return false
	}
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// PaymentMethod is how an order is paid for
type PaymentMethod string

const (
	PaymentMethodCOD        PaymentMethod = "cod"
	PaymentMethodCreditCard PaymentMethod = "credit_card"
	PaymentMethodStripe     PaymentMethod = "stripe"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCOD, PaymentMethodCreditCard, PaymentMethodStripe:
		return true
	}
	return false
}

// PaymentStatus tracks settlement of an order or payment record
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// CanTransitionTo reports whether the settlement state machine allows moving
// from s to next. Only pending -> completed and pending -> failed are legal;
// completed and failed are terminal.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	return s == PaymentStatusPending &&
		(next == PaymentStatusCompleted || next == PaymentStatusFailed)
}

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed:
		return true
	}
	return false
}

// ShippingAddress is the address snapshot denormalized onto an order
type ShippingAddress struct {
	Name       string `json:"name" db:"ship_name"`
	Email      string `json:"email" db:"ship_email"`
	Street     string `json:"street" db:"ship_street"`
	City       string `json:"city" db:"ship_city"`
	State      string `json:"state" db:"ship_state"`
	PostalCode string `json:"postal_code" db:"ship_postal_code"`
}

// OrderItem is a price-locked line within an order. Price, size, color and
// provider are copied from the product at checkout time; later catalog changes
// never alter a persisted order.
type OrderItem struct {
	ID         uuid.UUID `json:"id" db:"id"`
	OrderID    uuid.UUID `json:"order_id" db:"order_id"`
	ProductID  uuid.UUID `json:"product_id" db:"product_id"`
	ProviderID uuid.UUID `json:"provider_id" db:"provider_id"`
	Quantity   int       `json:"quantity" db:"quantity"`
	Price      float64   `json:"price" db:"price"`
	Size       string    `json:"size" db:"size"`
	Color      string    `json:"color" db:"color"`
}

// Subtotal returns the frozen price of this line.
func (i *OrderItem) Subtotal() float64 {
	return i.Price * float64(i.Quantity)
}

// Order is an immutable-once-created aggregate produced by checkout. Only the
// two status fields change after creation; orders are never deleted.
type Order struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	UserID        uuid.UUID       `json:"user_id" db:"user_id"`
	Items         []OrderItem     `json:"items"`
	Shipping      ShippingAddress `json:"shipping_address"`
	TotalAmount   float64         `json:"total_amount" db:"total_amount"`
	PaymentMethod PaymentMethod   `json:"payment_method" db:"payment_method"`
	PaymentStatus PaymentStatus   `json:"payment_status" db:"payment_status"`
	OrderStatus   OrderStatus     `json:"order_status" db:"order_status"`
	TransactionID string          `json:"transaction_id,omitempty" db:"transaction_id"`
	Notes         string          `json:"notes,omitempty" db:"notes"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}
