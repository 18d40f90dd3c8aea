package reports

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/waretrack/waretrack-backend/pkg/enums"
)

// StockLevelRow is one (product, location) line of the stock levels report,
// classified against the product's configured min/max levels.
type StockLevelRow struct {
	ProductID     uuid.UUID         `json:"product_id"`
	ProductCode   string            `json:"product_code"`
	ProductName   string            `json:"product_name"`
	LocationID    uuid.UUID         `json:"location_id"`
	LocationCode  string            `json:"location_code"`
	Quantity      int               `json:"quantity"`
	MinStockLevel int               `json:"min_stock_level"`
	MaxStockLevel int               `json:"max_stock_level"`
	Status        enums.StockStatus `json:"status"`
}

// StockLevelFilters narrows the stock levels report.
type StockLevelFilters struct {
	LocationID *uuid.UUID
	Status     *enums.StockStatus
}

// HistoryRow is a ledger entry enriched with catalog codes so the report
// reads without extra lookups.
type HistoryRow struct {
	ID               uuid.UUID             `json:"id"`
	Code             string                `json:"code"`
	Type             enums.TransactionType `json:"type"`
	ProductCode      string                `json:"product_code"`
	ProductName      string                `json:"product_name"`
	FromLocationCode *string               `json:"from_location_code,omitempty"`
	ToLocationCode   *string               `json:"to_location_code,omitempty"`
	Quantity         int                   `json:"quantity"`
	Direction        *enums.StockDirection `json:"direction,omitempty"`
	ReferenceNumber  *string               `json:"reference_number,omitempty"`
	TransactionDate  time.Time             `json:"transaction_date"`
}

// HistoryPage is one page of the transaction history report.
type HistoryPage struct {
	Rows  []HistoryRow `json:"rows"`
	Total int64        `json:"total"`
}

// VarianceRow is one count line of the stocktake variance report.
type VarianceRow struct {
	ProductID        uuid.UUID `json:"product_id"`
	ProductCode      string    `json:"product_code"`
	ProductName      string    `json:"product_name"`
	ExpectedQuantity int       `json:"expected_quantity"`
	CountedQuantity  *int      `json:"counted_quantity,omitempty"`
	Variance         *int      `json:"variance,omitempty"`
}

// VarianceReport summarises a stocktake session's count lines.
type VarianceReport struct {
	SessionID         uuid.UUID             `json:"session_id"`
	LocationID        uuid.UUID             `json:"location_id"`
	LocationCode      string                `json:"location_code"`
	Status            enums.StocktakeStatus `json:"status"`
	TotalLines        int                   `json:"total_lines"`
	CountedLines      int                   `json:"counted_lines"`
	LinesWithVariance int                   `json:"lines_with_variance"`
	NetVariance       int                   `json:"net_variance"`
	Rows              []VarianceRow         `json:"rows"`
}

// DashboardStatistics are the headline counters on the operations dashboard.
type DashboardStatistics struct {
	TotalProducts     int   `json:"total_products"`
	TotalLocations    int   `json:"total_locations"`
	TodayTransactions int64 `json:"today_transactions"`
	LowStockItems     int   `json:"low_stock_items"`
}

// DashboardReport is the operations dashboard: headline counters plus the
// most recent ledger activity.
type DashboardReport struct {
	Statistics         DashboardStatistics `json:"statistics"`
	RecentTransactions []HistoryRow        `json:"recent_transactions"`
}

// UserActivityFilters narrows the user activity report.
type UserActivityFilters struct {
	UserID *uuid.UUID
	Action *string
	From   *time.Time
	To     *time.Time
}

// ActivityRow is one audit log entry with the actor's name resolved.
type ActivityRow struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"user_id"`
	UserName   string          `json:"user_name,omitempty"`
	Action     string          `json:"action"`
	EntityType *string         `json:"entity_type,omitempty"`
	EntityID   *string         `json:"entity_id,omitempty"`
	Details    json.RawMessage `json:"details,omitempty"`
	IPAddress  *string         `json:"ip_address,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// UserActivitySummary aggregates one user's audited actions by action name.
type UserActivitySummary struct {
	UserID          uuid.UUID      `json:"user_id"`
	UserName        string         `json:"user_name"`
	UserRole        enums.UserRole `json:"user_role"`
	Actions         map[string]int `json:"actions"`
	TotalActivities int            `json:"total_activities"`
}

// UserActivityReport pairs the per-user summary with the most recent
// individual entries.
type UserActivityReport struct {
	GeneratedAt time.Time             `json:"generated_at"`
	Summary     []UserActivitySummary `json:"summary"`
	Activities  []ActivityRow         `json:"activities"`
}
