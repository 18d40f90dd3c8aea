package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/waretrack/waretrack-backend/pkg/db/models"
)

// Repository wires together catalog persistence for products and locations.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// CreateProduct inserts a new product row.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct updates an existing product row.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// FindProductByID loads a product by its UUID.
func (r *Repository) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindProductByCode loads a product by its immutable code.
func (r *Repository) FindProductByCode(ctx context.Context, code string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ListProducts returns products matching the provided filters ordered by code.
func (r *Repository) ListProducts(ctx context.Context, filters ProductListFilters) ([]models.Product, error) {
	qb := r.db.WithContext(ctx).Model(&models.Product{})
	if filters.ActiveOnly {
		qb = qb.Where("is_active = ?", true)
	}
	if filters.Category != nil {
		qb = qb.Where("category = ?", *filters.Category)
	}
	if search := strings.TrimSpace(filters.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("(LOWER(name) LIKE ? OR LOWER(code) LIKE ?)", pattern, pattern)
	}

	var rows []models.Product
	err := qb.Order("code ASC").Find(&rows).Error
	return rows, err
}

// CreateLocation inserts a new location row.
func (r *Repository) CreateLocation(ctx context.Context, location *models.Location) (*models.Location, error) {
	if err := r.db.WithContext(ctx).Create(location).Error; err != nil {
		return nil, err
	}
	return location, nil
}

// UpdateLocation updates an existing location row.
func (r *Repository) UpdateLocation(ctx context.Context, location *models.Location) (*models.Location, error) {
	if err := r.db.WithContext(ctx).Save(location).Error; err != nil {
		return nil, err
	}
	return location, nil
}

// FindLocationByID loads a location by its UUID.
func (r *Repository) FindLocationByID(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	var location models.Location
	if err := r.db.WithContext(ctx).First(&location, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

// FindLocationByCode loads a location by its immutable code.
func (r *Repository) FindLocationByCode(ctx context.Context, code string) (*models.Location, error) {
	var location models.Location
	if err := r.db.WithContext(ctx).First(&location, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

// ListLocations returns locations ordered by code.
func (r *Repository) ListLocations(ctx context.Context, activeOnly bool) ([]models.Location, error) {
	qb := r.db.WithContext(ctx).Model(&models.Location{})
	if activeOnly {
		qb = qb.Where("is_active = ?", true)
	}
	var rows []models.Location
	err := qb.Order("code ASC").Find(&rows).Error
	return rows, err
}
