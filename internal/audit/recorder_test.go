package audit

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/waretrack/waretrack-backend/pkg/db/models"
	"github.com/waretrack/waretrack-backend/pkg/logger"
)

func setupAuditTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS audit_log_entries (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  action TEXT NOT NULL,
  entity_type TEXT,
  entity_id TEXT,
  details TEXT,
  ip_address TEXT,
  user_agent TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func newTestRecorder(t *testing.T) (*Recorder, *gorm.DB) {
	t.Helper()
	db := setupAuditTestDB(t)
	recorder, err := NewRecorder(db, logger.New(logger.Options{Level: zerolog.ErrorLevel, Output: io.Discard}))
	require.NoError(t, err)
	return recorder, db
}

func TestRecorderCapturesRequestInfoFromContext(t *testing.T) {
	recorder, db := newTestRecorder(t)
	userID := uuid.New()

	ctx := WithRequestInfo(context.Background(), RequestInfo{
		IPAddress: "203.0.113.7",
		UserAgent: "handheld-scanner/2.1",
	})
	recorder.Record(ctx, Entry{
		UserID:     userID,
		Action:     "stock.inbound",
		EntityType: "stock_transaction",
		EntityID:   uuid.NewString(),
		Details:    map[string]any{"quantity": 5},
	})

	var row models.AuditLogEntry
	require.NoError(t, db.Where("user_id = ?", userID).First(&row).Error)
	require.NotNil(t, row.IPAddress)
	assert.Equal(t, "203.0.113.7", *row.IPAddress)
	require.NotNil(t, row.UserAgent)
	assert.Equal(t, "handheld-scanner/2.1", *row.UserAgent)
	assert.Equal(t, "stock.inbound", row.Action)
	assert.NotEmpty(t, row.Details)
}

func TestRecorderExplicitAddressWinsOverContext(t *testing.T) {
	recorder, db := newTestRecorder(t)
	userID := uuid.New()
	explicit := "198.51.100.4"

	ctx := WithRequestInfo(context.Background(), RequestInfo{IPAddress: "203.0.113.7"})
	recorder.Record(ctx, Entry{
		UserID:    userID,
		Action:    "auth.login",
		IPAddress: &explicit,
	})

	var row models.AuditLogEntry
	require.NoError(t, db.Where("user_id = ?", userID).First(&row).Error)
	require.NotNil(t, row.IPAddress)
	assert.Equal(t, explicit, *row.IPAddress)
}

func TestRecorderListFiltersAndOrders(t *testing.T) {
	recorder, db := newTestRecorder(t)
	alice := uuid.New()
	bob := uuid.New()
	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	seed := []models.AuditLogEntry{
		{ID: uuid.New(), UserID: alice, Action: "stock.inbound", CreatedAt: base},
		{ID: uuid.New(), UserID: alice, Action: "stock.outbound", CreatedAt: base.Add(time.Hour)},
		{ID: uuid.New(), UserID: bob, Action: "stock.inbound", CreatedAt: base.Add(2 * time.Hour)},
	}
	for i := range seed {
		require.NoError(t, db.Create(&seed[i]).Error)
	}

	byUser, err := recorder.List(context.Background(), ActivityFilters{UserID: &alice})
	require.NoError(t, err)
	require.Len(t, byUser, 2)
	assert.Equal(t, "stock.outbound", byUser[0].Action, "newest entry first")

	action := "stock.inbound"
	byAction, err := recorder.List(context.Background(), ActivityFilters{Action: &action})
	require.NoError(t, err)
	require.Len(t, byAction, 2)

	from := base.Add(90 * time.Minute)
	recent, err := recorder.List(context.Background(), ActivityFilters{From: &from})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, bob, recent[0].UserID)

	capped, err := recorder.List(context.Background(), ActivityFilters{Limit: 1})
	require.NoError(t, err)
	require.Len(t, capped, 1)
}
