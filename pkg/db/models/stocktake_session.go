package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/waretrack/waretrack-backend/pkg/enums"
)

// StocktakeSession is one physical-count exercise for a location. A partial
// unique index on (location_id) WHERE status = 'active' enforces at most one
// active session per location.
type StocktakeSession struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	LocationID  uuid.UUID             `gorm:"column:location_id;type:uuid;not null;index:idx_stocktake_sessions_location"`
	Status      enums.StocktakeStatus `gorm:"column:status;not null;default:active"`
	StartedBy   uuid.UUID             `gorm:"column:started_by;type:uuid;not null"`
	CompletedBy *uuid.UUID            `gorm:"column:completed_by;type:uuid"`
	StartDate   time.Time             `gorm:"column:start_date;not null"`
	EndDate     *time.Time            `gorm:"column:end_date"`
	Notes       *string               `gorm:"column:notes"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
