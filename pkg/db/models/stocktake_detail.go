package models

import (
	"time"

	"github.com/google/uuid"
)

// StocktakeDetail is one (session, product) count row, snapshotted when the
// session opens. CountedQuantity stays nil until the product is counted;
// re-counting overwrites (last write wins).
type StocktakeDetail struct {
	ID               uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SessionID        uuid.UUID  `gorm:"column:session_id;type:uuid;not null;uniqueIndex:idx_stocktake_details_session_product"`
	ProductID        uuid.UUID  `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_stocktake_details_session_product"`
	ExpectedQuantity int        `gorm:"column:expected_quantity;not null"`
	CountedQuantity  *int       `gorm:"column:counted_quantity"`
	Variance         *int       `gorm:"column:variance"`
	Notes            *string    `gorm:"column:notes"`
	CountedBy        *uuid.UUID `gorm:"column:counted_by;type:uuid"`
	CountedAt        *time.Time `gorm:"column:counted_at"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
