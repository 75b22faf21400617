package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"rug-market/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrCartItemNotFound = errors.New("cart item not found")
)

// CartRepository defines the interface for cart data access. A cart is just
// the set of cart_items rows keyed by user; there is no cart header row.
type CartRepository interface {
	// Upsert inserts the line or, when a line with the same product and
	// variant exists, adds the quantities together.
	Upsert(ctx context.Context, item *domain.CartItem) error
	// FindLine returns the line matching the exact product+variant key, if any.
	FindLine(ctx context.Context, userID, productID uuid.UUID, size, color string) (*domain.CartItem, error)
	// UpdateQuantity sets the quantity on the user's line(s) for a product.
	// Empty size/color match any variant. Returns ErrCartItemNotFound when
	// nothing matched.
	UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, size, color string, quantity int) error
	// Remove deletes the user's line(s) for a product. Removing an absent
	// line is a no-op success.
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	// ListByUser returns the cart joined to live product data.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.CartLine, error)
}

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository creates a new instance of CartRepository
func NewCartRepository(db *sql.DB) CartRepository {
	return &cartRepository{db: db}
}

// Upsert inserts or merges a cart line using the product+variant unique key
func (r *cartRepository) Upsert(ctx context.Context, item *domain.CartItem) error {
	query := `
		INSERT INTO cart_items (id, user_id, product_id, quantity, size, color, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, product_id, size, color)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity,
		              updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		item.ID,
		item.UserID,
		item.ProductID,
		item.Quantity,
		item.Size,
		item.Color,
		item.CreatedAt,
		item.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert cart item: %w", err)
	}

	return nil
}

// FindLine retrieves the exact product+variant line for a user
func (r *cartRepository) FindLine(ctx context.Context, userID, productID uuid.UUID, size, color string) (*domain.CartItem, error) {
	query := `
		SELECT id, user_id, product_id, quantity, size, color, created_at, updated_at
		FROM cart_items
		WHERE user_id = $1 AND product_id = $2 AND size = $3 AND color = $4
	`

	item := &domain.CartItem{}
	err := r.db.QueryRowContext(ctx, query, userID, productID, size, color).Scan(
		&item.ID,
		&item.UserID,
		&item.ProductID,
		&item.Quantity,
		&item.Size,
		&item.Color,
		&item.CreatedAt,
		&item.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCartItemNotFound
		}
		return nil, fmt.Errorf("failed to find cart item: %w", err)
	}

	return item, nil
}

// UpdateQuantity sets the quantity for a user's cart line(s)
func (r *cartRepository) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, size, color string, quantity int) error {
	query := `
		UPDATE cart_items
		SET quantity = $5, updated_at = NOW()
		WHERE user_id = $1 AND product_id = $2
		  AND ($3 = '' OR size = $3)
		  AND ($4 = '' OR color = $4)
	`

	result, err := r.db.ExecContext(ctx, query, userID, productID, size, color, quantity)
	if err != nil {
		return fmt.Errorf("failed to update cart quantity: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCartItemNotFound
	}

	return nil
}

// Remove deletes a user's cart line(s) for a product. Absent lines are a
// no-op: removal is idempotent.
func (r *cartRepository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	query := `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`

	if _, err := r.db.ExecContext(ctx, query, userID, productID); err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}

	return nil
}

// ListByUser retrieves cart lines joined to the live product record. Prices
// here are current catalog prices; nothing is frozen until checkout.
func (r *cartRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.CartLine, error) {
	query := `
		SELECT ci.id, ci.user_id, ci.product_id, ci.quantity, ci.size, ci.color,
		       ci.created_at, ci.updated_at,
		       p.name, p.price, p.stock, p.provider_id, COALESCE(i.url, '')
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		LEFT JOIN product_images i ON i.product_id = p.id AND i.position = 0
		WHERE ci.user_id = $1
		ORDER BY ci.created_at
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	defer rows.Close()

	lines := []domain.CartLine{}
	for rows.Next() {
		var line domain.CartLine
		err := rows.Scan(
			&line.ID,
			&line.UserID,
			&line.ProductID,
			&line.Quantity,
			&line.Size,
			&line.Color,
			&line.CreatedAt,
			&line.UpdatedAt,
			&line.ProductName,
			&line.UnitPrice,
			&line.Stock,
			&line.ProviderID,
			&line.Image,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		lines = append(lines, line)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart lines: %w", err)
	}

	return lines, nil
}
