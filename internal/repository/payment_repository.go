package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"rug-market/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrPaymentAlreadyExists = errors.New("payment already recorded for this order")
)

// PaymentRepository defines the interface for payment data access
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Payment, error)
	// UpdateStatus persists a settlement status change and mirrors it onto
	// the parent order's payment_status in the same transaction, so the two
	// rows can never disagree.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus) error
}

type paymentRepository struct {
	db *sql.DB
}

// NewPaymentRepository creates a new instance of PaymentRepository
func NewPaymentRepository(db *sql.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// Create inserts a payment; orders carry at most one payment record
func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (id, order_id, payment_method, amount, transaction_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		payment.ID,
		payment.OrderID,
		payment.Method,
		payment.Amount,
		payment.TransactionID,
		payment.Status,
		payment.CreatedAt,
		payment.UpdatedAt,
	)

	if err != nil {
		// Unique violation on order_id means a payment is already recorded
		if strings.Contains(err.Error(), "payments_order_id_key") ||
			strings.Contains(err.Error(), "SQLSTATE 23505") {
			return ErrPaymentAlreadyExists
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// FindByID retrieves a payment by ID
func (r *paymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	return r.findBy(ctx, "id", id)
}

// FindByOrderID retrieves the payment belonging to an order
func (r *paymentRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Payment, error) {
	return r.findBy(ctx, "order_id", orderID)
}

func (r *paymentRepository) findBy(ctx context.Context, column string, value uuid.UUID) (*domain.Payment, error) {
	query := fmt.Sprintf(`
		SELECT id, order_id, payment_method, amount, transaction_id, status, created_at, updated_at
		FROM payments
		WHERE %s = $1
	`, column)

	payment := &domain.Payment{}
	err := r.db.QueryRowContext(ctx, query, value).Scan(
		&payment.ID,
		&payment.OrderID,
		&payment.Method,
		&payment.Amount,
		&payment.TransactionID,
		&payment.Status,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}

	return payment, nil
}

// UpdateStatus persists a settlement status change and mirrors it onto the
// parent order inside one transaction
func (r *paymentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin payment status transaction: %w", err)
	}
	defer tx.Rollback()

	var orderID uuid.UUID
	err = tx.QueryRowContext(ctx,
		`UPDATE payments SET status = $2, updated_at = NOW() WHERE id = $1 RETURNING order_id`,
		id, status).Scan(&orderID)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrPaymentNotFound
		}
		return fmt.Errorf("failed to update payment status: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE orders SET payment_status = $2, updated_at = NOW() WHERE id = $1`,
		orderID, status)
	if err != nil {
		return fmt.Errorf("failed to mirror payment status onto order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit payment status: %w", err)
	}

	return nil
}
