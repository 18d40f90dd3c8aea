package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/waretrack/waretrack-backend/pkg/db/models"
)

// ProductDTO is the transport shape for a catalog product.
type ProductDTO struct {
	ID             uuid.UUID `json:"id"`
	Code           string    `json:"code"`
	Name           string    `json:"name"`
	Description    *string   `json:"description,omitempty"`
	Category       *string   `json:"category,omitempty"`
	UnitPriceCents int       `json:"unit_price_cents"`
	MinStockLevel  int       `json:"min_stock_level"`
	MaxStockLevel  int       `json:"max_stock_level"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// LocationDTO is the transport shape for a storage location.
type LocationDTO struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Code           string
	Name           string
	Description    *string
	Category       *string
	UnitPriceCents int
	MinStockLevel  int
	MaxStockLevel  int
}

// UpdateProductInput holds optional mutation values for a product. The code
// is immutable once assigned.
type UpdateProductInput struct {
	Name           *string
	Description    *string
	Category       *string
	UnitPriceCents *int
	MinStockLevel  *int
	MaxStockLevel  *int
	IsActive       *bool
}

// CreateLocationInput holds the validated payload to create a location.
type CreateLocationInput struct {
	Code        string
	Name        string
	Description *string
}

// UpdateLocationInput holds optional mutation values for a location.
type UpdateLocationInput struct {
	Name        *string
	Description *string
	IsActive    *bool
}

// ProductListFilters narrows product listings.
type ProductListFilters struct {
	Category   *string
	ActiveOnly bool
	Query      string
}

func NewProductDTO(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	return &ProductDTO{
		ID:             p.ID,
		Code:           p.Code,
		Name:           p.Name,
		Description:    p.Description,
		Category:       p.Category,
		UnitPriceCents: p.UnitPriceCents,
		MinStockLevel:  p.MinStockLevel,
		MaxStockLevel:  p.MaxStockLevel,
		IsActive:       p.IsActive,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func NewLocationDTO(l *models.Location) *LocationDTO {
	if l == nil {
		return nil
	}
	return &LocationDTO{
		ID:          l.ID,
		Code:        l.Code,
		Name:        l.Name,
		Description: l.Description,
		IsActive:    l.IsActive,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}
