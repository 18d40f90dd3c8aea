package reports

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/waretrack/waretrack-backend/internal/audit"
	"github.com/waretrack/waretrack-backend/internal/catalog"
	"github.com/waretrack/waretrack-backend/internal/stock"
	"github.com/waretrack/waretrack-backend/pkg/db/models"
	"github.com/waretrack/waretrack-backend/pkg/enums"
	pkgerrors "github.com/waretrack/waretrack-backend/pkg/errors"
	"github.com/waretrack/waretrack-backend/pkg/logger"
)

type stubBalances struct {
	rows []models.StockBalance
}

func (s *stubBalances) ListBalances(ctx context.Context, filters stock.BalanceFilters) ([]models.StockBalance, error) {
	var out []models.StockBalance
	for _, row := range s.rows {
		if filters.LocationID != nil && row.LocationID != *filters.LocationID {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

type stubLedger struct {
	rows []models.StockTransaction
}

func (s *stubLedger) ListTransactions(ctx context.Context, query stock.TransactionQuery) ([]models.StockTransaction, int64, error) {
	var out []models.StockTransaction
	for _, row := range s.rows {
		if query.From != nil && row.TransactionDate.Before(*query.From) {
			continue
		}
		out = append(out, row)
	}
	total := int64(len(out))
	if limit := query.Pagination.Limit; limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

type stubActivity struct {
	rows []models.AuditLogEntry
}

func (s *stubActivity) List(ctx context.Context, filters audit.ActivityFilters) ([]models.AuditLogEntry, error) {
	var out []models.AuditLogEntry
	for _, row := range s.rows {
		if filters.UserID != nil && row.UserID != *filters.UserID {
			continue
		}
		if filters.Action != nil && row.Action != *filters.Action {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

type stubUsers struct {
	rows []models.User
}

func (s *stubUsers) List(ctx context.Context) ([]models.User, error) {
	return s.rows, nil
}

type stubCatalogReader struct {
	products  []models.Product
	locations []models.Location
}

func (s *stubCatalogReader) ListProducts(ctx context.Context, filters catalog.ProductListFilters) ([]models.Product, error) {
	return s.products, nil
}

func (s *stubCatalogReader) ListLocations(ctx context.Context, activeOnly bool) ([]models.Location, error) {
	return s.locations, nil
}

type stubSessions struct {
	session *models.StocktakeSession
	details []models.StocktakeDetail
}

func (s *stubSessions) FindSessionByID(ctx context.Context, id uuid.UUID) (*models.StocktakeSession, error) {
	if s.session == nil || s.session.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.session, nil
}

func (s *stubSessions) ListDetails(ctx context.Context, sessionID uuid.UUID) ([]models.StocktakeDetail, error) {
	return s.details, nil
}

type reportsFixture struct {
	service  *Service
	balances *stubBalances
	ledger   *stubLedger
	catalog  *stubCatalogReader
	sessions *stubSessions
	activity *stubActivity
	users    *stubUsers
}

func newReportsFixture(t *testing.T) *reportsFixture {
	t.Helper()
	fixture := &reportsFixture{
		balances: &stubBalances{},
		ledger:   &stubLedger{},
		catalog:  &stubCatalogReader{},
		sessions: &stubSessions{},
		activity: &stubActivity{},
		users:    &stubUsers{},
	}
	service, err := NewService(ServiceParams{
		Balances: fixture.balances,
		Ledger:   fixture.ledger,
		Catalog:  fixture.catalog,
		Sessions: fixture.sessions,
		Activity: fixture.activity,
		Users:    fixture.users,
		Logger:   logger.New(logger.Options{Level: zerolog.ErrorLevel}),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	fixture.service = service
	return fixture
}

func (f *reportsFixture) addProduct(code string, min, max int) uuid.UUID {
	id := uuid.New()
	f.catalog.products = append(f.catalog.products, models.Product{
		ID: id, Code: code, Name: code + " name", MinStockLevel: min, MaxStockLevel: max, IsActive: true,
	})
	return id
}

func (f *reportsFixture) addLocation(code string) uuid.UUID {
	id := uuid.New()
	f.catalog.locations = append(f.catalog.locations, models.Location{
		ID: id, Code: code, Name: code + " name", IsActive: true,
	})
	return id
}

func TestStockLevelsClassifiesRows(t *testing.T) {
	fixture := newReportsFixture(t)
	locationID := fixture.addLocation("WH-A")
	outOfStock := fixture.addProduct("P-OUT", 5, 100)
	lowStock := fixture.addProduct("P-LOW", 5, 100)
	overstock := fixture.addProduct("P-OVER", 5, 100)
	normal := fixture.addProduct("P-NORM", 5, 100)
	fixture.balances.rows = []models.StockBalance{
		{ProductID: outOfStock, LocationID: locationID, Quantity: 0},
		{ProductID: lowStock, LocationID: locationID, Quantity: 5},
		{ProductID: overstock, LocationID: locationID, Quantity: 150},
		{ProductID: normal, LocationID: locationID, Quantity: 50},
	}

	rows, err := fixture.service.StockLevels(context.Background(), StockLevelFilters{})
	if err != nil {
		t.Fatalf("StockLevels: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(rows))
	}
	want := map[uuid.UUID]enums.StockStatus{
		outOfStock: enums.StockStatusOutOfStock,
		lowStock:   enums.StockStatusLow,
		overstock:  enums.StockStatusOverstock,
		normal:     enums.StockStatusNormal,
	}
	for _, row := range rows {
		if row.Status != want[row.ProductID] {
			t.Errorf("product %s status = %s, want %s", row.ProductCode, row.Status, want[row.ProductID])
		}
		if row.LocationCode != "WH-A" {
			t.Errorf("location code = %s, want WH-A", row.LocationCode)
		}
	}
}

func TestStockLevelsStatusFilter(t *testing.T) {
	fixture := newReportsFixture(t)
	locationID := fixture.addLocation("WH-A")
	lowStock := fixture.addProduct("P-LOW", 10, 100)
	normal := fixture.addProduct("P-NORM", 10, 100)
	fixture.balances.rows = []models.StockBalance{
		{ProductID: lowStock, LocationID: locationID, Quantity: 3},
		{ProductID: normal, LocationID: locationID, Quantity: 50},
	}

	status := enums.StockStatusLow
	rows, err := fixture.service.StockLevels(context.Background(), StockLevelFilters{Status: &status})
	if err != nil {
		t.Fatalf("StockLevels: %v", err)
	}
	if len(rows) != 1 || rows[0].ProductID != lowStock {
		t.Fatalf("rows = %v, want only the low-stock product", rows)
	}
}

func TestTransactionHistoryResolvesCodes(t *testing.T) {
	fixture := newReportsFixture(t)
	fromID := fixture.addLocation("WH-A")
	toID := fixture.addLocation("WH-B")
	productID := fixture.addProduct("P-001", 0, 0)
	fixture.ledger.rows = []models.StockTransaction{
		{
			ID:              uuid.New(),
			Code:            "MOV-20260829120000-abc123",
			Type:            enums.TransactionTypeMove,
			ProductID:       productID,
			FromLocationID:  &fromID,
			ToLocationID:    &toID,
			Quantity:        4,
			TransactionDate: time.Now().UTC(),
		},
	}

	page, err := fixture.service.TransactionHistory(context.Background(), stock.TransactionQuery{})
	if err != nil {
		t.Fatalf("TransactionHistory: %v", err)
	}
	if page.Total != 1 || len(page.Rows) != 1 {
		t.Fatalf("page = %+v, want a single row", page)
	}
	row := page.Rows[0]
	if row.ProductCode != "P-001" {
		t.Fatalf("product code = %s, want P-001", row.ProductCode)
	}
	if row.FromLocationCode == nil || *row.FromLocationCode != "WH-A" {
		t.Fatalf("from code = %v, want WH-A", row.FromLocationCode)
	}
	if row.ToLocationCode == nil || *row.ToLocationCode != "WH-B" {
		t.Fatalf("to code = %v, want WH-B", row.ToLocationCode)
	}
}

func TestStocktakeVarianceSummary(t *testing.T) {
	fixture := newReportsFixture(t)
	locationID := fixture.addLocation("WH-A")
	over := fixture.addProduct("P-OVER", 0, 0)
	under := fixture.addProduct("P-UNDER", 0, 0)
	uncounted := fixture.addProduct("P-SKIP", 0, 0)
	sessionID := uuid.New()
	fixture.sessions.session = &models.StocktakeSession{
		ID:         sessionID,
		LocationID: locationID,
		Status:     enums.StocktakeStatusActive,
	}
	three, minusOne := 3, -1
	thirteen, nine := 13, 9
	fixture.sessions.details = []models.StocktakeDetail{
		{SessionID: sessionID, ProductID: over, ExpectedQuantity: 10, CountedQuantity: &thirteen, Variance: &three},
		{SessionID: sessionID, ProductID: under, ExpectedQuantity: 10, CountedQuantity: &nine, Variance: &minusOne},
		{SessionID: sessionID, ProductID: uncounted, ExpectedQuantity: 10},
	}

	report, err := fixture.service.StocktakeVariance(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("StocktakeVariance: %v", err)
	}
	if report.TotalLines != 3 || report.CountedLines != 2 || report.LinesWithVariance != 2 {
		t.Fatalf("summary = %+v, want 3 total / 2 counted / 2 with variance", report)
	}
	if report.NetVariance != 2 {
		t.Fatalf("net variance = %d, want 2", report.NetVariance)
	}
	if report.LocationCode != "WH-A" {
		t.Fatalf("location code = %s, want WH-A", report.LocationCode)
	}
}

func TestStocktakeVarianceUnknownSession(t *testing.T) {
	fixture := newReportsFixture(t)
	_, err := fixture.service.StocktakeVariance(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("error = %v, want NOT_FOUND", err)
	}
}

func TestDashboardSummarisesCountersAndRecentActivity(t *testing.T) {
	fixture := newReportsFixture(t)
	locationID := fixture.addLocation("WH-A")
	lowProduct := fixture.addProduct("P-LOW", 5, 100)
	normalProduct := fixture.addProduct("P-NORM", 5, 100)
	fixture.balances.rows = []models.StockBalance{
		{ProductID: lowProduct, LocationID: locationID, Quantity: 2},
		{ProductID: normalProduct, LocationID: locationID, Quantity: 50},
	}
	now := time.Now().UTC()
	fixture.ledger.rows = []models.StockTransaction{
		{ID: uuid.New(), Code: "IN-1", Type: enums.TransactionTypeInbound, ProductID: lowProduct, Quantity: 2, TransactionDate: now},
		{ID: uuid.New(), Code: "OUT-1", Type: enums.TransactionTypeOutbound, ProductID: normalProduct, Quantity: 1, TransactionDate: now.AddDate(0, 0, -3)},
	}

	report, err := fixture.service.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	stats := report.Statistics
	if stats.TotalProducts != 2 || stats.TotalLocations != 1 {
		t.Fatalf("catalog counters = %d/%d, want 2/1", stats.TotalProducts, stats.TotalLocations)
	}
	if stats.TodayTransactions != 1 {
		t.Fatalf("today transactions = %d, want 1", stats.TodayTransactions)
	}
	if stats.LowStockItems != 1 {
		t.Fatalf("low stock items = %d, want 1", stats.LowStockItems)
	}
	if len(report.RecentTransactions) != 2 {
		t.Fatalf("recent transactions = %d, want 2", len(report.RecentTransactions))
	}
	if report.RecentTransactions[0].ProductCode != "P-LOW" {
		t.Fatalf("recent product code = %s, want P-LOW", report.RecentTransactions[0].ProductCode)
	}
}

func TestUserActivityGroupsByUserAndAction(t *testing.T) {
	fixture := newReportsFixture(t)
	alice := uuid.New()
	bob := uuid.New()
	fixture.users.rows = []models.User{
		{ID: alice, Username: "alice", FullName: "Alice Moreau", Role: enums.UserRoleSupervisor},
	}
	fixture.activity.rows = []models.AuditLogEntry{
		{ID: uuid.New(), UserID: alice, Action: "stock.inbound"},
		{ID: uuid.New(), UserID: alice, Action: "stock.inbound"},
		{ID: uuid.New(), UserID: alice, Action: "stocktake.open"},
		{ID: uuid.New(), UserID: bob, Action: "stock.outbound"},
	}

	report, err := fixture.service.UserActivity(context.Background(), UserActivityFilters{})
	if err != nil {
		t.Fatalf("UserActivity: %v", err)
	}
	if len(report.Summary) != 2 {
		t.Fatalf("summary = %d users, want 2", len(report.Summary))
	}
	top := report.Summary[0]
	if top.UserID != alice || top.TotalActivities != 3 {
		t.Fatalf("top user = %+v, want alice with 3 activities", top)
	}
	if top.UserName != "Alice Moreau" || top.UserRole != enums.UserRoleSupervisor {
		t.Fatalf("expected resolved name and role, got %+v", top)
	}
	if top.Actions["stock.inbound"] != 2 || top.Actions["stocktake.open"] != 1 {
		t.Fatalf("action tallies = %v", top.Actions)
	}
	if len(report.Activities) != 4 {
		t.Fatalf("activities = %d, want 4", len(report.Activities))
	}

	action := "stock.outbound"
	filtered, err := fixture.service.UserActivity(context.Background(), UserActivityFilters{Action: &action})
	if err != nil {
		t.Fatalf("UserActivity filtered: %v", err)
	}
	if len(filtered.Summary) != 1 || filtered.Summary[0].UserID != bob {
		t.Fatalf("filtered summary = %+v, want only bob", filtered.Summary)
	}
}

func TestUserActivityUnavailableWithoutAuditLog(t *testing.T) {
	fixture := newReportsFixture(t)
	service, err := NewService(ServiceParams{
		Balances: fixture.balances,
		Ledger:   fixture.ledger,
		Catalog:  fixture.catalog,
		Sessions: fixture.sessions,
		Logger:   logger.New(logger.Options{Level: zerolog.ErrorLevel}),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	_, err = service.UserActivity(context.Background(), UserActivityFilters{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInvalidOperation {
		t.Fatalf("error = %v, want INVALID_OPERATION", err)
	}
}
