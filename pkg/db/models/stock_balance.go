package models

import (
	"time"

	"github.com/google/uuid"
)

// StockBalance is the current on-hand quantity for one (product, location)
// pair. At most one row exists per pair; absence implies quantity zero.
// Quantity never goes negative after a committed transaction.
type StockBalance struct {
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	LocationID uuid.UUID `gorm:"column:location_id;type:uuid;primaryKey"`
	Quantity   int       `gorm:"column:quantity;not null;default:0"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides GORM's pluralization.
func (StockBalance) TableName() string {
	return "stock_balances"
}
