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
	ErrProductNotFound = errors.New("product not found")
)

// ProductSummary is the shape of a product in the public listing: the first
// image stands in for the gallery and the provider is resolved to a name.
type ProductSummary struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Price        float64   `json:"price"`
	Image        string    `json:"image,omitempty"`
	ProviderName string    `json:"provider_name"`
	Material     *string   `json:"material,omitempty"`
	Pattern      *string   `json:"pattern,omitempty"`
	RoomType     *string   `json:"room_type,omitempty"`
	Style        *string   `json:"style,omitempty"`
}

// ProductDetail is a full product with its gallery, provider name and comments.
type ProductDetail struct {
	domain.Product
	ProviderName string           `json:"provider_name"`
	Comments     []domain.Comment `json:"comments"`
}

// ProductRepository defines the interface for catalog data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	FindDetailByID(ctx context.Context, id uuid.UUID) (*ProductDetail, error)
	ListApproved(ctx context.Context) ([]*ProductSummary, error)
	AddComment(ctx context.Context, comment *domain.Comment) error
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create inserts a product and its ordered image gallery in one transaction
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO products (id, name, description, price, stock, status, is_deleted,
		                      provider_id, material, pattern, room_type, style, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err = tx.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.Stock,
		product.Status,
		product.IsDeleted,
		product.ProviderID,
		product.Material,
		product.Pattern,
		product.RoomType,
		product.Style,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	imageQuery := `INSERT INTO product_images (id, product_id, url, position) VALUES ($1, $2, $3, $4)`
	for i, url := range product.Images {
		if _, err := tx.ExecContext(ctx, imageQuery, uuid.New(), product.ID, url, i); err != nil {
			return fmt.Errorf("failed to create product image: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit product: %w", err)
	}

	return nil
}

// FindByID retrieves a product by ID regardless of approval state
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `
		SELECT id, name, description, price, stock, status, is_deleted,
		       provider_id, material, pattern, room_type, style, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	product := &domain.Product{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.Stock,
		&product.Status,
		&product.IsDeleted,
		&product.ProviderID,
		&product.Material,
		&product.Pattern,
		&product.RoomType,
		&product.Style,
		&product.CreatedAt,
		&product.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	images, err := r.loadImages(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Images = images

	return product, nil
}

// FindDetailByID retrieves a listable product together with its provider name
// and comment thread. Unapproved or deleted products are not found.
func (r *productRepository) FindDetailByID(ctx context.Context, id uuid.UUID) (*ProductDetail, error) {
	query := `
		SELECT p.id, p.name, p.description, p.price, p.stock, p.status, p.is_deleted,
		       p.provider_id, p.material, p.pattern, p.room_type, p.style,
		       p.created_at, p.updated_at, u.name
		FROM products p
		JOIN users u ON u.id = p.provider_id
		WHERE p.id = $1 AND p.status = 'approved' AND p.is_deleted = FALSE
	`

	detail := &ProductDetail{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&detail.ID,
		&detail.Name,
		&detail.Description,
		&detail.Price,
		&detail.Stock,
		&detail.Status,
		&detail.IsDeleted,
		&detail.ProviderID,
		&detail.Material,
		&detail.Pattern,
		&detail.RoomType,
		&detail.Style,
		&detail.CreatedAt,
		&detail.UpdatedAt,
		&detail.ProviderName,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product detail: %w", err)
	}

	images, err := r.loadImages(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.Images = images

	comments, err := r.loadComments(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.Comments = comments

	return detail, nil
}

// ListApproved retrieves all publicly listable products in summary shape
func (r *productRepository) ListApproved(ctx context.Context) ([]*ProductSummary, error) {
	query := `
		SELECT p.id, p.name, p.price, COALESCE(i.url, ''), u.name,
		       p.material, p.pattern, p.room_type, p.style
		FROM products p
		JOIN users u ON u.id = p.provider_id
		LEFT JOIN product_images i ON i.product_id = p.id AND i.position = 0
		WHERE p.status = 'approved' AND p.is_deleted = FALSE
		ORDER BY p.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved products: %w", err)
	}
	defer rows.Close()

	products := []*ProductSummary{}
	for rows.Next() {
		summary := &ProductSummary{}
		err := rows.Scan(
			&summary.ID,
			&summary.Name,
			&summary.Price,
			&summary.Image,
			&summary.ProviderName,
			&summary.Material,
			&summary.Pattern,
			&summary.RoomType,
			&summary.Style,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product summary: %w", err)
		}
		products = append(products, summary)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating approved products: %w", err)
	}

	return products, nil
}

// AddComment appends a comment to a product's review thread
func (r *productRepository) AddComment(ctx context.Context, comment *domain.Comment) error {
	query := `
		INSERT INTO product_comments (id, product_id, user_id, text, rating, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		comment.ID,
		comment.ProductID,
		comment.UserID,
		comment.Text,
		comment.Rating,
		comment.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to add comment: %w", err)
	}

	return nil
}

func (r *productRepository) loadImages(ctx context.Context, productID uuid.UUID) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT url FROM product_images WHERE product_id = $1 ORDER BY position`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product images: %w", err)
	}
	defer rows.Close()

	images := []string{}
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan product image: %w", err)
		}
		images = append(images, url)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product images: %w", err)
	}

	return images, nil
}

func (r *productRepository) loadComments(ctx context.Context, productID uuid.UUID) ([]domain.Comment, error) {
	query := `
		SELECT c.id, c.product_id, c.user_id, u.name, c.text, c.rating, c.created_at
		FROM product_comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.product_id = $1
		ORDER BY c.created_at
	`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load comments: %w", err)
	}
	defer rows.Close()

	comments := []domain.Comment{}
	for rows.Next() {
		var c domain.Comment
		err := rows.Scan(&c.ID, &c.ProductID, &c.UserID, &c.UserName, &c.Text, &c.Rating, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}

	return comments, nil
}
