package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/waretrack/waretrack-backend/pkg/db"
	"github.com/waretrack/waretrack-backend/pkg/db/models"
	pkgerrors "github.com/waretrack/waretrack-backend/pkg/errors"
)

// Service exposes catalog management operations for products and locations.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	GetProductByCode(ctx context.Context, code string) (*ProductDTO, error)
	ListProducts(ctx context.Context, filters ProductListFilters) ([]ProductDTO, error)
	DeactivateProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)

	CreateLocation(ctx context.Context, input CreateLocationInput) (*LocationDTO, error)
	UpdateLocation(ctx context.Context, locationID uuid.UUID, input UpdateLocationInput) (*LocationDTO, error)
	GetLocation(ctx context.Context, locationID uuid.UUID) (*LocationDTO, error)
	ListLocations(ctx context.Context, activeOnly bool) ([]LocationDTO, error)
	DeactivateLocation(ctx context.Context, locationID uuid.UUID) (*LocationDTO, error)
}

type catalogStore interface {
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindProductByCode(ctx context.Context, code string) (*models.Product, error)
	ListProducts(ctx context.Context, filters ProductListFilters) ([]models.Product, error)

	CreateLocation(ctx context.Context, location *models.Location) (*models.Location, error)
	UpdateLocation(ctx context.Context, location *models.Location) (*models.Location, error)
	FindLocationByID(ctx context.Context, id uuid.UUID) (*models.Location, error)
	ListLocations(ctx context.Context, activeOnly bool) ([]models.Location, error)
}

type service struct {
	repo catalogStore
}

// NewService constructs a catalog service instance.
func NewService(repo catalogStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

// CreateProduct registers a new product. Codes are unique and immutable.
func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	code := strings.TrimSpace(input.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product code is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if err := validateStockLevels(input.MinStockLevel, input.MaxStockLevel); err != nil {
		return nil, err
	}
	if input.UnitPriceCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit_price_cents must be non-negative")
	}

	product := &models.Product{
		ID:             uuid.New(),
		Code:           code,
		Name:           name,
		Description:    input.Description,
		Category:       input.Category,
		UnitPriceCents: input.UnitPriceCents,
		MinStockLevel:  input.MinStockLevel,
		MaxStockLevel:  input.MaxStockLevel,
		IsActive:       true,
	}
	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeDuplicateKey, fmt.Sprintf("product code %q already exists", code))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}
	return NewProductDTO(created), nil
}

// UpdateProduct applies partial updates. The product code never changes.
func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
		}
		product.Name = name
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.Category != nil {
		product.Category = input.Category
	}
	if input.UnitPriceCents != nil {
		if *input.UnitPriceCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit_price_cents must be non-negative")
		}
		product.UnitPriceCents = *input.UnitPriceCents
	}
	if input.MinStockLevel != nil {
		product.MinStockLevel = *input.MinStockLevel
	}
	if input.MaxStockLevel != nil {
		product.MaxStockLevel = *input.MaxStockLevel
	}
	if err := validateStockLevels(product.MinStockLevel, product.MaxStockLevel); err != nil {
		return nil, err
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	updated, err := s.repo.UpdateProduct(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
	}
	return NewProductDTO(updated), nil
}

// GetProduct loads one product by ID.
func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(product), nil
}

// GetProductByCode loads one product by its code.
func (s *service) GetProductByCode(ctx context.Context, code string) (*ProductDTO, error) {
	product, err := s.repo.FindProductByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return NewProductDTO(product), nil
}

// ListProducts returns products matching the filters.
func (s *service) ListProducts(ctx context.Context, filters ProductListFilters) ([]ProductDTO, error) {
	rows, err := s.repo.ListProducts(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	dtos := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *NewProductDTO(&rows[i]))
	}
	return dtos, nil
}

// DeactivateProduct soft-deletes a product so history stays intact.
func (s *service) DeactivateProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return NewProductDTO(product), nil
	}
	product.IsActive = false
	updated, err := s.repo.UpdateProduct(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: deactivate product")
	}
	return NewProductDTO(updated), nil
}

// CreateLocation registers a new storage location.
func (s *service) CreateLocation(ctx context.Context, input CreateLocationInput) (*LocationDTO, error) {
	code := strings.TrimSpace(input.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location code is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location name is required")
	}

	location := &models.Location{
		ID:          uuid.New(),
		Code:        code,
		Name:        name,
		Description: input.Description,
		IsActive:    true,
	}
	created, err := s.repo.CreateLocation(ctx, location)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeDuplicateKey, fmt.Sprintf("location code %q already exists", code))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert location")
	}
	return NewLocationDTO(created), nil
}

// UpdateLocation applies partial updates. The location code never changes.
func (s *service) UpdateLocation(ctx context.Context, locationID uuid.UUID, input UpdateLocationInput) (*LocationDTO, error) {
	location, err := s.loadLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "location name is required")
		}
		location.Name = name
	}
	if input.Description != nil {
		location.Description = input.Description
	}
	if input.IsActive != nil {
		location.IsActive = *input.IsActive
	}

	updated, err := s.repo.UpdateLocation(ctx, location)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update location")
	}
	return NewLocationDTO(updated), nil
}

// GetLocation loads one location by ID.
func (s *service) GetLocation(ctx context.Context, locationID uuid.UUID) (*LocationDTO, error) {
	location, err := s.loadLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}
	return NewLocationDTO(location), nil
}

// ListLocations returns locations, optionally restricted to active ones.
func (s *service) ListLocations(ctx context.Context, activeOnly bool) ([]LocationDTO, error) {
	rows, err := s.repo.ListLocations(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list locations")
	}
	dtos := make([]LocationDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *NewLocationDTO(&rows[i]))
	}
	return dtos, nil
}

// DeactivateLocation soft-deletes a location so history stays intact.
func (s *service) DeactivateLocation(ctx context.Context, locationID uuid.UUID) (*LocationDTO, error) {
	location, err := s.loadLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if !location.IsActive {
		return NewLocationDTO(location), nil
	}
	location.IsActive = false
	updated, err := s.repo.UpdateLocation(ctx, location)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: deactivate location")
	}
	return NewLocationDTO(updated), nil
}

func (s *service) loadProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) loadLocation(ctx context.Context, locationID uuid.UUID) (*models.Location, error) {
	location, err := s.repo.FindLocationByID(ctx, locationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load location")
	}
	return location, nil
}

func validateStockLevels(min, max int) error {
	if min < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "min_stock_level must be non-negative")
	}
	if max < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "max_stock_level must be non-negative")
	}
	if max > 0 && min > max {
		return pkgerrors.New(pkgerrors.CodeValidation, "min_stock_level cannot exceed max_stock_level")
	}
	return nil
}
