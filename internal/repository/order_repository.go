package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rug-market/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrEmptyCart     = errors.New("cart is empty")
	ErrOutOfStock    = errors.New("insufficient stock")
	// ErrInconsistency is returned when the cart changed between the checkout
	// snapshot and the cart clear. The transaction is rolled back, so no
	// order is persisted alongside a stale cart.
	ErrInconsistency = errors.New("cart changed during checkout")
)

// OutOfStockError reports which product line failed stock validation.
// errors.Is(err, ErrOutOfStock) matches it.
type OutOfStockError struct {
	ProductID uuid.UUID
	Requested int
	Available int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *OutOfStockError) Is(target error) bool {
	return target == ErrOutOfStock
}

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	// CreateFromCart converts the user's cart into a persisted order inside
	// a single transaction: product rows are locked, stock is re-validated,
	// prices are snapshotted, stock is decremented and the snapshotted cart
	// lines are cleared. Any failure rolls the whole thing back.
	CreateFromCart(ctx context.Context, userID uuid.UUID, shipping domain.ShippingAddress, method domain.PaymentMethod, notes string) (*domain.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

// cartSnapshotLine is a cart line captured at the start of checkout
type cartSnapshotLine struct {
	cartItemID uuid.UUID
	productID  uuid.UUID
	quantity   int
	size       string
	color      string
}

// CreateFromCart performs the checkout transaction. The cart-read, stock-check
// and order-write sequence holds row locks on the products involved, so two
// concurrent checkouts over the same stock serialize instead of both passing
// a stale read.
func (r *orderRepository) CreateFromCart(ctx context.Context, userID uuid.UUID, shipping domain.ShippingAddress, method domain.PaymentMethod, notes string) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin checkout transaction: %w", err)
	}
	defer tx.Rollback()

	lines, err := r.snapshotCart(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	now := time.Now()
	order := &domain.Order{
		ID:            uuid.New(),
		UserID:        userID,
		Shipping:      shipping,
		PaymentMethod: method,
		PaymentStatus: domain.PaymentStatusPending,
		OrderStatus:   domain.OrderStatusProcessing,
		Notes:         notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	// Variant lines of one product are separate cart rows but draw from the
	// same stock, so validation compares the per-product total, not each
	// line on its own.
	required := make(map[uuid.UUID]int)
	for _, line := range lines {
		required[line.productID] += line.quantity
	}

	// Lock rows in id order so concurrent checkouts can't deadlock, then
	// validate every product before writing anything. No partial orders.
	type lockedProduct struct {
		price      float64
		providerID uuid.UUID
	}
	locked := make(map[uuid.UUID]lockedProduct)
	for _, line := range lines {
		product, ok := locked[line.productID]
		if !ok {
			var (
				stock     int
				status    domain.ProductStatus
				isDeleted bool
			)
			err := tx.QueryRowContext(ctx, `
				SELECT price, stock, provider_id, status, is_deleted
				FROM products
				WHERE id = $1
				FOR UPDATE
			`, line.productID).Scan(&product.price, &stock, &product.providerID, &status, &isDeleted)
			if err != nil {
				if err == sql.ErrNoRows {
					return nil, ErrProductNotFound
				}
				return nil, fmt.Errorf("failed to lock product row: %w", err)
			}

			if status != domain.ProductStatusApproved || isDeleted {
				return nil, ErrProductNotFound
			}

			if required[line.productID] > stock {
				return nil, &OutOfStockError{
					ProductID: line.productID,
					Requested: required[line.productID],
					Available: stock,
				}
			}

			locked[line.productID] = product
		}

		order.Items = append(order.Items, domain.OrderItem{
			ID:         uuid.New(),
			OrderID:    order.ID,
			ProductID:  line.productID,
			ProviderID: product.providerID,
			Quantity:   line.quantity,
			Price:      product.price,
			Size:       line.size,
			Color:      line.color,
		})
		order.TotalAmount += product.price * float64(line.quantity)
	}

	if err := r.insertOrder(ctx, tx, order); err != nil {
		return nil, err
	}

	// Stock is decremented at order creation, inside the same transaction
	// that validated it. The CHECK (stock >= 0) constraint backstops the
	// validation above.
	for _, item := range order.Items {
		_, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock - $2, updated_at = NOW() WHERE id = $1`,
			item.ProductID, item.Quantity)
		if err != nil {
			return nil, fmt.Errorf("failed to decrement stock: %w", err)
		}
	}

	// Clear exactly the snapshotted lines. Lines added concurrently survive;
	// a count mismatch means a line we priced was mutated underneath us, so
	// the order must not stand against that cart.
	var deleted int64
	for _, line := range lines {
		result, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1`, line.cartItemID)
		if err != nil {
			return nil, fmt.Errorf("failed to clear cart: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to get rows affected: %w", err)
		}
		deleted += n
	}
	if int(deleted) != len(lines) {
		return nil, ErrInconsistency
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit checkout: %w", err)
	}

	return order, nil
}

// snapshotCart reads the user's cart lines ordered by product id, which fixes
// the product lock order for the validation loop.
func (r *orderRepository) snapshotCart(ctx context.Context, tx *sql.Tx, userID uuid.UUID) ([]cartSnapshotLine, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, product_id, quantity, size, color
		FROM cart_items
		WHERE user_id = $1
		ORDER BY product_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	defer rows.Close()

	lines := []cartSnapshotLine{}
	for rows.Next() {
		var line cartSnapshotLine
		if err := rows.Scan(&line.cartItemID, &line.productID, &line.quantity, &line.size, &line.color); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		lines = append(lines, line)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart lines: %w", err)
	}

	return lines, nil
}

func (r *orderRepository) insertOrder(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	query := `
		INSERT INTO orders (id, user_id, ship_name, ship_email, ship_street, ship_city,
		                    ship_state, ship_postal_code, total_amount, payment_method,
		                    payment_status, order_status, transaction_id, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := tx.ExecContext(
		ctx,
		query,
		order.ID,
		order.UserID,
		order.Shipping.Name,
		order.Shipping.Email,
		order.Shipping.Street,
		order.Shipping.City,
		order.Shipping.State,
		order.Shipping.PostalCode,
		order.TotalAmount,
		order.PaymentMethod,
		order.PaymentStatus,
		order.OrderStatus,
		order.TransactionID,
		order.Notes,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, provider_id, quantity, price, size, color)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, item := range order.Items {
		_, err := tx.ExecContext(
			ctx,
			itemQuery,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.ProviderID,
			item.Quantity,
			item.Price,
			item.Size,
			item.Color,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	return nil
}

// FindByID retrieves an order with its line items
func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `
		SELECT id, user_id, ship_name, ship_email, ship_street, ship_city,
		       ship_state, ship_postal_code, total_amount, payment_method,
		       payment_status, order_status, transaction_id, notes, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	order := &domain.Order{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.UserID,
		&order.Shipping.Name,
		&order.Shipping.Email,
		&order.Shipping.Street,
		&order.Shipping.City,
		&order.Shipping.State,
		&order.Shipping.PostalCode,
		&order.TotalAmount,
		&order.PaymentMethod,
		&order.PaymentStatus,
		&order.OrderStatus,
		&order.TransactionID,
		&order.Notes,
		&order.CreatedAt,
		&order.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}

	items, err := r.loadItems(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

// ListByUser retrieves a user's orders, newest first, with line items
func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	query := `
		SELECT id, user_id, ship_name, ship_email, ship_street, ship_city,
		       ship_state, ship_postal_code, total_amount, payment_method,
		       payment_status, order_status, transaction_id, notes, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order := &domain.Order{}
		err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.Shipping.Name,
			&order.Shipping.Email,
			&order.Shipping.Street,
			&order.Shipping.City,
			&order.Shipping.State,
			&order.Shipping.PostalCode,
			&order.TotalAmount,
			&order.PaymentMethod,
			&order.PaymentStatus,
			&order.OrderStatus,
			&order.TransactionID,
			&order.Notes,
			&order.CreatedAt,
			&order.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	for _, order := range orders {
		items, err := r.loadItems(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		order.Items = items
	}

	return orders, nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, provider_id, quantity, price, size, color
		FROM order_items
		WHERE order_id = $1
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	items := []domain.OrderItem{}
	for rows.Next() {
		var item domain.OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProviderID,
			&item.Quantity, &item.Price, &item.Size, &item.Color)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

// UpdateOrderStatus persists a fulfillment status change
func (r *orderRepository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE orders SET order_status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}
