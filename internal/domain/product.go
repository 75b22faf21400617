package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProductStatus represents the approval state of a product
type ProductStatus string

const (
	ProductStatusDraft    ProductStatus = "draft"
	ProductStatusApproved ProductStatus = "approved"
	ProductStatusRejected ProductStatus = "rejected"
)

// Product represents a product in the marketplace catalog
type Product struct {
	ID          uuid.UUID     `json:"id" db:"id"`
	Name        string        `json:"name" db:"name"`
	Description string        `json:"description" db:"description"`
	Price       float64       `json:"price" db:"price"`
	Stock       int           `json:"stock" db:"stock"`
	Status      ProductStatus `json:"status" db:"status"`
	IsDeleted   bool          `json:"is_deleted" db:"is_deleted"`
	ProviderID  uuid.UUID     `json:"provider_id" db:"provider_id"`
	Material    *string       `json:"material,omitempty" db:"material"`
	Pattern     *string       `json:"pattern,omitempty" db:"pattern"`
	RoomType    *string       `json:"room_type,omitempty" db:"room_type"`
	Style       *string       `json:"style,omitempty" db:"style"`
	Images      []string      `json:"images"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

// Listable reports whether the product may appear in the public catalog.
// Only approved, non-deleted products are listable.
func (p *Product) Listable() bool {
	return p.Status == ProductStatusApproved && !p.IsDeleted
}

// Comment represents a user review attached to a product
type Comment struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	UserName  string    `json:"user_name" db:"user_name"`
	Text      string    `json:"text" db:"text"`
	Rating    int       `json:"rating" db:"rating"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
