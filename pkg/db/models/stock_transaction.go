package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/waretrack/waretrack-backend/pkg/enums"
)

// StockTransaction is one immutable ledger entry for a stock-affecting event.
// Quantities are positive magnitudes; the type implies the direction, except
// for stocktake adjustments which carry an explicit Direction.
type StockTransaction struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code            string                `gorm:"column:code;not null;uniqueIndex:idx_stock_transactions_code"`
	Type            enums.TransactionType `gorm:"column:type;not null"`
	ProductID       uuid.UUID             `gorm:"column:product_id;type:uuid;not null;index:idx_stock_transactions_product"`
	FromLocationID  *uuid.UUID            `gorm:"column:from_location_id;type:uuid;index:idx_stock_transactions_from"`
	ToLocationID    *uuid.UUID            `gorm:"column:to_location_id;type:uuid;index:idx_stock_transactions_to"`
	Quantity        int                   `gorm:"column:quantity;not null"`
	Direction       *enums.StockDirection `gorm:"column:direction"`
	ReferenceNumber *string               `gorm:"column:reference_number"`
	Notes           *string               `gorm:"column:notes"`
	UserID          uuid.UUID             `gorm:"column:user_id;type:uuid;not null"`
	TransactionDate time.Time             `gorm:"column:transaction_date;not null"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
}
