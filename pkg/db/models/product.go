package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a catalog item identified by its immutable code. Products are
// soft-deactivated, never hard-deleted.
type Product struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code           string    `gorm:"column:code;not null;uniqueIndex:idx_products_code"`
	Name           string    `gorm:"column:name;not null"`
	Description    *string   `gorm:"column:description"`
	Category       *string   `gorm:"column:category"`
	UnitPriceCents int       `gorm:"column:unit_price_cents;not null;default:0"`
	MinStockLevel  int       `gorm:"column:min_stock_level;not null;default:0"`
	MaxStockLevel  int       `gorm:"column:max_stock_level;not null;default:1000"`
	IsActive       bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
