package service

import (
	"context"
	"errors"
	"fmt"

	"rug-market/internal/domain"
	"rug-market/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidTransition    = errors.New("status transition not allowed")
)

// OrderService defines the interface for order business logic
type OrderService interface {
	// Checkout converts the user's cart into an immutable, price-snapshotted
	// order. All-or-nothing: one understocked line fails the whole checkout
	// and leaves the cart untouched.
	Checkout(ctx context.Context, userID uuid.UUID, shipping domain.ShippingAddress, method domain.PaymentMethod, notes string) (*domain.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	// GetOrder returns the order only to its owner.
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error)
	// UpdateStatus advances the fulfillment state machine: processing ->
	// shipped -> delivered, cancellation allowed from processing or shipped.
	UpdateStatus(ctx context.Context, orderID uuid.UUID, next domain.OrderStatus) (*domain.Order, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(orderRepo repository.OrderRepository) OrderService {
	return &orderService{orderRepo: orderRepo}
}

// Checkout validates the payment method and delegates the transactional cart
// conversion to the repository.
func (s *orderService) Checkout(ctx context.Context, userID uuid.UUID, shipping domain.ShippingAddress, method domain.PaymentMethod, notes string) (*domain.Order, error) {
	if !method.Valid() {
		return nil, ErrInvalidPaymentMethod
	}

	order, err := s.orderRepo.CreateFromCart(ctx, userID, shipping, method, notes)
	if err != nil {
		// Business failures pass through untouched so the handler can map
		// them; anything else is wrapped.
		if errors.Is(err, repository.ErrEmptyCart) ||
			errors.Is(err, repository.ErrOutOfStock) ||
			errors.Is(err, repository.ErrProductNotFound) ||
			errors.Is(err, repository.ErrInconsistency) {
			return nil, err
		}
		return nil, fmt.Errorf("checkout failed: %w", err)
	}

	return order, nil
}

// ListOrders returns the user's orders, newest first
func (s *orderService) ListOrders(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// GetOrder loads an order and enforces ownership. A foreign order is
// indistinguishable from a missing one.
func (s *orderService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, repository.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	if order.UserID != userID {
		return nil, repository.ErrOrderNotFound
	}

	return order, nil
}

// UpdateStatus applies a forward-only fulfillment transition
func (s *orderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, next domain.OrderStatus) (*domain.Order, error) {
	if !next.Valid() {
		return nil, ErrInvalidTransition
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, repository.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	if !order.OrderStatus.CanTransitionTo(next) {
		return nil, ErrInvalidTransition
	}

	if err := s.orderRepo.UpdateOrderStatus(ctx, orderID, next); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	order.OrderStatus = next
	return order, nil
}
