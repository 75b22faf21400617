package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rug-market/internal/domain"
	"rug-market/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// CartService defines the interface for cart business logic
type CartService interface {
	// AddItem puts quantity units of a product variant in the user's cart,
	// merging with an existing line for the same product+size+color.
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int, size, color string) error
	// UpdateQuantity sets a cart line to an exact quantity. It never clamps:
	// out-of-range values are the caller's problem.
	UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, size, color string, quantity int) error
	// RemoveItem drops a product from the cart; absent lines are a no-op.
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) error
	// GetCart returns the cart with a subtotal computed from live catalog
	// prices. Order totals are frozen at checkout; cart totals never are.
	GetCart(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewCartService creates a new instance of CartService
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// AddItem validates the product and stock, then upserts the cart line
func (s *cartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int, size, color string) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return repository.ErrProductNotFound
		}
		return fmt.Errorf("failed to load product: %w", err)
	}
	if !product.Listable() {
		return repository.ErrProductNotFound
	}

	// Stock is checked against the merged line quantity, so repeatedly
	// adding a product cannot build a cart line the catalog can't fill.
	// Checkout re-validates under row locks either way.
	merged := quantity
	existing, err := s.cartRepo.FindLine(ctx, userID, productID, size, color)
	if err != nil && !errors.Is(err, repository.ErrCartItemNotFound) {
		return fmt.Errorf("failed to check existing cart line: %w", err)
	}
	if existing != nil {
		merged += existing.Quantity
	}

	if merged > product.Stock {
		return &repository.OutOfStockError{
			ProductID: productID,
			Requested: merged,
			Available: product.Stock,
		}
	}

	now := time.Now()
	item := &domain.CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		Size:      size,
		Color:     color,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.cartRepo.Upsert(ctx, item); err != nil {
		return fmt.Errorf("failed to add cart item: %w", err)
	}

	return nil
}

// UpdateQuantity sets an exact quantity on an existing cart line
func (s *cartService) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, size, color string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return repository.ErrProductNotFound
		}
		return fmt.Errorf("failed to load product: %w", err)
	}

	if quantity > product.Stock {
		return &repository.OutOfStockError{
			ProductID: productID,
			Requested: quantity,
			Available: product.Stock,
		}
	}

	if err := s.cartRepo.UpdateQuantity(ctx, userID, productID, size, color, quantity); err != nil {
		if errors.Is(err, repository.ErrCartItemNotFound) {
			return repository.ErrCartItemNotFound
		}
		return fmt.Errorf("failed to update cart quantity: %w", err)
	}

	return nil
}

// RemoveItem deletes a product from the cart. Removing a line that isn't
// there succeeds without effect.
func (s *cartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	if err := s.cartRepo.Remove(ctx, userID, productID); err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return nil
}

// GetCart returns the cart lines with a live subtotal
func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	lines, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	cart := &domain.Cart{
		UserID: userID,
		Items:  lines,
	}
	for i := range lines {
		cart.Total += lines[i].Subtotal()
	}

	return cart, nil
}
