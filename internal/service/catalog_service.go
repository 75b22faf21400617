package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rug-market/internal/domain"
	"rug-market/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	ErrEmptyComment  = errors.New("comment text must not be empty")
)

// CatalogService defines the interface for public catalog browsing
type CatalogService interface {
	// ListApproved returns every publicly listable product in summary shape.
	ListApproved(ctx context.Context) ([]*repository.ProductSummary, error)
	// GetProduct returns the full detail of a listable product.
	GetProduct(ctx context.Context, id uuid.UUID) (*repository.ProductDetail, error)
	// AddComment appends a rated review to a listable product.
	AddComment(ctx context.Context, userID, productID uuid.UUID, text string, rating int) (*domain.Comment, error)
}

type catalogService struct {
	productRepo repository.ProductRepository
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(productRepo repository.ProductRepository) CatalogService {
	return &catalogService{productRepo: productRepo}
}

// ListApproved returns the public catalog
func (s *catalogService) ListApproved(ctx context.Context) ([]*repository.ProductSummary, error) {
	products, err := s.productRepo.ListApproved(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved products: %w", err)
	}
	return products, nil
}

// GetProduct returns a listable product with gallery, provider and comments
func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*repository.ProductDetail, error) {
	detail, err := s.productRepo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, repository.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return detail, nil
}

// AddComment validates and appends a review to a listable product
func (s *catalogService) AddComment(ctx context.Context, userID, productID uuid.UUID, text string, rating int) (*domain.Comment, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyComment
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, repository.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if !product.Listable() {
		return nil, repository.ErrProductNotFound
	}

	comment := &domain.Comment{
		ID:        uuid.New(),
		ProductID: productID,
		UserID:    userID,
		Text:      text,
		Rating:    rating,
		CreatedAt: time.Now(),
	}

	if err := s.productRepo.AddComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	return comment, nil
}
