package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"rug-market/internal/domain"
	"rug-market/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrAmountMismatch = errors.New("payment amount does not match order total")
)

// amountTolerance absorbs decimal-to-float rounding when comparing a claimed
// payment amount against the stored order total.
const amountTolerance = 0.005

// PaymentService defines the interface for payment business logic
type PaymentService interface {
	// RecordPayment creates the pending settlement receipt for an order.
	// The amount must equal the order's total; orders carry exactly one
	// payment record.
	RecordPayment(ctx context.Context, orderID uuid.UUID, method domain.PaymentMethod, amount float64, transactionID string) (*domain.Payment, error)
	// UpdateStatus moves a payment pending -> completed or pending -> failed
	// and mirrors the result onto the parent order.
	UpdateStatus(ctx context.Context, paymentID uuid.UUID, next domain.PaymentStatus) (*domain.Payment, error)
	GetByOrder(ctx context.Context, orderID uuid.UUID) (*domain.Payment, error)
}

type paymentService struct {
	paymentRepo repository.PaymentRepository
	orderRepo   repository.OrderRepository
}

// NewPaymentService creates a new instance of PaymentService
func NewPaymentService(paymentRepo repository.PaymentRepository, orderRepo repository.OrderRepository) PaymentService {
	return &paymentService{
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
	}
}

// RecordPayment validates the amount against the parent order and persists a
// pending payment.
func (s *paymentService) RecordPayment(ctx context.Context, orderID uuid.UUID, method domain.PaymentMethod, amount float64, transactionID string) (*domain.Payment, error) {
	if !method.Valid() {
		return nil, ErrInvalidPaymentMethod
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, repository.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	if math.Abs(amount-order.TotalAmount) > amountTolerance {
		return nil, ErrAmountMismatch
	}

	now := time.Now()
	payment := &domain.Payment{
		ID:            uuid.New(),
		OrderID:       orderID,
		Method:        method,
		Amount:        order.TotalAmount,
		TransactionID: transactionID,
		Status:        domain.PaymentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		if errors.Is(err, repository.ErrPaymentAlreadyExists) {
			return nil, repository.ErrPaymentAlreadyExists
		}
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	return payment, nil
}

// UpdateStatus applies a one-way settlement transition and keeps the parent
// order's payment_status in step.
func (s *paymentService) UpdateStatus(ctx context.Context, paymentID uuid.UUID, next domain.PaymentStatus) (*domain.Payment, error) {
	if !next.Valid() {
		return nil, ErrInvalidTransition
	}

	payment, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, repository.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}

	if !payment.Status.CanTransitionTo(next) {
		return nil, ErrInvalidTransition
	}

	// The repository mirrors the new status onto the parent order in the
	// same transaction.
	if err := s.paymentRepo.UpdateStatus(ctx, paymentID, next); err != nil {
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}

	payment.Status = next
	return payment, nil
}

// GetByOrder returns the payment record for an order
func (s *paymentService) GetByOrder(ctx context.Context, orderID uuid.UUID) (*domain.Payment, error) {
	payment, err := s.paymentRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, repository.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	return payment, nil
}
