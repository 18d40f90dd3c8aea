package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLogEntry records who did what, from where. Append-only side channel;
// writes are best-effort and never block the primary mutation.
type AuditLogEntry struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index:idx_audit_log_user"`
	Action     string          `gorm:"column:action;not null"`
	EntityType *string         `gorm:"column:entity_type"`
	EntityID   *string         `gorm:"column:entity_id"`
	Details    json.RawMessage `gorm:"column:details;type:jsonb"`
	IPAddress  *string         `gorm:"column:ip_address"`
	UserAgent  *string         `gorm:"column:user_agent"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// TableName overrides GORM's pluralization.
func (AuditLogEntry) TableName() string {
	return "audit_log_entries"
}
