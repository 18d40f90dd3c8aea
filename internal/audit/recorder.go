package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/waretrack/waretrack-backend/pkg/db/models"
	"github.com/waretrack/waretrack-backend/pkg/logger"
)

// Entry is one audit event to persist.
type Entry struct {
	UserID     uuid.UUID
	Action     string
	EntityType string
	EntityID   string
	Details    map[string]any
	IPAddress  *string
	UserAgent  *string
}

// Recorder appends audit events to the side-channel log. Writes are
// best-effort: failures are logged and swallowed so they never fail the
// primary mutation.
type Recorder struct {
	db   *gorm.DB
	logg *logger.Logger
}

// NewRecorder constructs a recorder bound to the provided GORM DB.
func NewRecorder(db *gorm.DB, logg *logger.Logger) (*Recorder, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Recorder{db: db, logg: logg}, nil
}

// Record persists the entry outside any caller transaction.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	row := &models.AuditLogEntry{
		ID:     uuid.New(),
		UserID: entry.UserID,
		Action: entry.Action,
	}
	if entry.EntityType != "" {
		row.EntityType = &entry.EntityType
	}
	if entry.EntityID != "" {
		row.EntityID = &entry.EntityID
	}
	row.IPAddress = entry.IPAddress
	row.UserAgent = entry.UserAgent
	if info, ok := RequestInfoFrom(ctx); ok {
		if row.IPAddress == nil && info.IPAddress != "" {
			row.IPAddress = &info.IPAddress
		}
		if row.UserAgent == nil && info.UserAgent != "" {
			row.UserAgent = &info.UserAgent
		}
	}

	if len(entry.Details) > 0 {
		payload, err := json.Marshal(entry.Details)
		if err != nil {
			r.logg.Error(ctx, "audit: marshal details", err)
		} else {
			row.Details = payload
		}
	}

	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		r.logg.Error(ctx, "audit: write entry", err)
	}
}

// ActivityFilters narrows an audit log listing.
type ActivityFilters struct {
	UserID *uuid.UUID
	Action *string
	From   *time.Time
	To     *time.Time
	Limit  int
}

// List returns matching entries, newest first. The limit is capped at 1000
// rows to keep activity reports bounded.
func (r *Recorder) List(ctx context.Context, filters ActivityFilters) ([]models.AuditLogEntry, error) {
	limit := filters.Limit
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}
	query := r.db.WithContext(ctx).Model(&models.AuditLogEntry{})
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.Action != nil {
		query = query.Where("action = ?", *filters.Action)
	}
	if filters.From != nil {
		query = query.Where("created_at >= ?", *filters.From)
	}
	if filters.To != nil {
		query = query.Where("created_at <= ?", *filters.To)
	}
	var rows []models.AuditLogEntry
	err := query.Order("created_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}
