package reports

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/waretrack/waretrack-backend/internal/audit"
	"github.com/waretrack/waretrack-backend/internal/catalog"
	"github.com/waretrack/waretrack-backend/internal/stock"
	"github.com/waretrack/waretrack-backend/pkg/db/models"
	"github.com/waretrack/waretrack-backend/pkg/enums"
	pkgerrors "github.com/waretrack/waretrack-backend/pkg/errors"
	"github.com/waretrack/waretrack-backend/pkg/logger"
	"github.com/waretrack/waretrack-backend/pkg/pagination"
)

type balanceLister interface {
	ListBalances(ctx context.Context, filters stock.BalanceFilters) ([]models.StockBalance, error)
}

type ledgerReader interface {
	ListTransactions(ctx context.Context, query stock.TransactionQuery) ([]models.StockTransaction, int64, error)
}

type catalogReader interface {
	ListProducts(ctx context.Context, filters catalog.ProductListFilters) ([]models.Product, error)
	ListLocations(ctx context.Context, activeOnly bool) ([]models.Location, error)
}

type sessionReader interface {
	FindSessionByID(ctx context.Context, id uuid.UUID) (*models.StocktakeSession, error)
	ListDetails(ctx context.Context, sessionID uuid.UUID) ([]models.StocktakeDetail, error)
}

type activityLister interface {
	List(ctx context.Context, filters audit.ActivityFilters) ([]models.AuditLogEntry, error)
}

type userLister interface {
	List(ctx context.Context) ([]models.User, error)
}

// Service produces read-only reporting projections over the catalog, the
// balances and the ledger. Nothing here mutates state.
type Service struct {
	balances balanceLister
	ledger   ledgerReader
	catalog  catalogReader
	sessions sessionReader
	activity activityLister
	users    userLister
	logg     *logger.Logger
}

// ServiceParams bundles the dependencies required to build the service.
// Activity and Users are optional: without them the user activity report
// is unavailable but every other report still works.
type ServiceParams struct {
	Balances balanceLister
	Ledger   ledgerReader
	Catalog  catalogReader
	Sessions sessionReader
	Activity activityLister
	Users    userLister
	Logger   *logger.Logger
}

// NewService constructs the reporting service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Balances == nil {
		return nil, fmt.Errorf("balance lister is required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger reader is required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog reader is required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session reader is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Service{
		balances: params.Balances,
		ledger:   params.Ledger,
		catalog:  params.Catalog,
		sessions: params.Sessions,
		activity: params.Activity,
		users:    params.Users,
		logg:     params.Logger,
	}, nil
}

// StockLevels classifies every known balance against the product's min/max
// levels. Products with no balance row at a location simply do not appear;
// their quantity is zero by definition.
func (s *Service) StockLevels(ctx context.Context, filters StockLevelFilters) ([]StockLevelRow, error) {
	balances, err := s.balances.ListBalances(ctx, stock.BalanceFilters{LocationID: filters.LocationID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list balances")
	}
	products, locations, err := s.catalogIndexes(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]StockLevelRow, 0, len(balances))
	for _, balance := range balances {
		product, ok := products[balance.ProductID]
		if !ok {
			continue
		}
		location, ok := locations[balance.LocationID]
		if !ok {
			continue
		}
		status := enums.ClassifyStock(balance.Quantity, product.MinStockLevel, product.MaxStockLevel)
		if filters.Status != nil && status != *filters.Status {
			continue
		}
		rows = append(rows, StockLevelRow{
			ProductID:     product.ID,
			ProductCode:   product.Code,
			ProductName:   product.Name,
			LocationID:    location.ID,
			LocationCode:  location.Code,
			Quantity:      balance.Quantity,
			MinStockLevel: product.MinStockLevel,
			MaxStockLevel: product.MaxStockLevel,
			Status:        status,
		})
	}
	return rows, nil
}

// TransactionHistory pages through the ledger, newest first, with catalog
// codes resolved onto every row.
func (s *Service) TransactionHistory(ctx context.Context, query stock.TransactionQuery) (*HistoryPage, error) {
	entries, total, err := s.ledger.ListTransactions(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}
	products, locations, err := s.catalogIndexes(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]HistoryRow, 0, len(entries))
	for i := range entries {
		rows = append(rows, historyRow(&entries[i], products, locations))
	}
	return &HistoryPage{Rows: rows, Total: total}, nil
}

func historyRow(entry *models.StockTransaction, products map[uuid.UUID]models.Product, locations map[uuid.UUID]models.Location) HistoryRow {
	row := HistoryRow{
		ID:              entry.ID,
		Code:            entry.Code,
		Type:            entry.Type,
		Quantity:        entry.Quantity,
		Direction:       entry.Direction,
		ReferenceNumber: entry.ReferenceNumber,
		TransactionDate: entry.TransactionDate,
	}
	if product, ok := products[entry.ProductID]; ok {
		row.ProductCode = product.Code
		row.ProductName = product.Name
	}
	row.FromLocationCode = locationCode(locations, entry.FromLocationID)
	row.ToLocationCode = locationCode(locations, entry.ToLocationID)
	return row
}

// StocktakeVariance summarises one session's count lines. It works for
// sessions in any status; uncounted lines show a nil variance.
func (s *Service) StocktakeVariance(ctx context.Context, sessionID uuid.UUID) (*VarianceReport, error) {
	session, err := s.sessions.FindSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stocktake session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	details, err := s.sessions.ListDetails(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load count lines")
	}
	products, locations, err := s.catalogIndexes(ctx)
	if err != nil {
		return nil, err
	}

	report := &VarianceReport{
		SessionID:  session.ID,
		LocationID: session.LocationID,
		Status:     session.Status,
		TotalLines: len(details),
		Rows:       make([]VarianceRow, 0, len(details)),
	}
	if location, ok := locations[session.LocationID]; ok {
		report.LocationCode = location.Code
	}
	for i := range details {
		detail := &details[i]
		row := VarianceRow{
			ProductID:        detail.ProductID,
			ExpectedQuantity: detail.ExpectedQuantity,
			CountedQuantity:  detail.CountedQuantity,
			Variance:         detail.Variance,
		}
		if product, ok := products[detail.ProductID]; ok {
			row.ProductCode = product.Code
			row.ProductName = product.Name
		}
		if detail.CountedQuantity != nil {
			report.CountedLines++
		}
		if detail.Variance != nil && *detail.Variance != 0 {
			report.LinesWithVariance++
			report.NetVariance += *detail.Variance
		}
		report.Rows = append(report.Rows, row)
	}
	return report, nil
}

// Dashboard assembles the headline counters and the five most recent
// ledger entries for the operations landing page.
func (s *Service) Dashboard(ctx context.Context) (*DashboardReport, error) {
	activeProducts, err := s.catalog.ListProducts(ctx, catalog.ProductListFilters{ActiveOnly: true})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	activeLocations, err := s.catalog.ListLocations(ctx, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list locations")
	}

	midnight := time.Now().UTC().Truncate(24 * time.Hour)
	_, todayTotal, err := s.ledger.ListTransactions(ctx, stock.TransactionQuery{
		From:       &midnight,
		Pagination: pagination.Params{Limit: 1},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count today's transactions")
	}

	lowStock := 0
	levels, err := s.StockLevels(ctx, StockLevelFilters{})
	if err != nil {
		return nil, err
	}
	for _, row := range levels {
		if row.Status == enums.StockStatusLow || row.Status == enums.StockStatusOutOfStock {
			lowStock++
		}
	}

	recentEntries, _, err := s.ledger.ListTransactions(ctx, stock.TransactionQuery{
		Pagination: pagination.Params{Limit: 5},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recent transactions")
	}
	products, locations, err := s.catalogIndexes(ctx)
	if err != nil {
		return nil, err
	}
	recent := make([]HistoryRow, 0, len(recentEntries))
	for i := range recentEntries {
		recent = append(recent, historyRow(&recentEntries[i], products, locations))
	}

	return &DashboardReport{
		Statistics: DashboardStatistics{
			TotalProducts:     len(activeProducts),
			TotalLocations:    len(activeLocations),
			TodayTransactions: todayTotal,
			LowStockItems:     lowStock,
		},
		RecentTransactions: recent,
	}, nil
}

// UserActivity groups the audit log by user and action. The detailed list
// is capped at the hundred most recent entries.
func (s *Service) UserActivity(ctx context.Context, filters UserActivityFilters) (*UserActivityReport, error) {
	if s.activity == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidOperation, "audit logging is disabled")
	}
	entries, err := s.activity.List(ctx, audit.ActivityFilters{
		UserID: filters.UserID,
		Action: filters.Action,
		From:   filters.From,
		To:     filters.To,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list audit entries")
	}

	names := make(map[uuid.UUID]models.User)
	if s.users != nil {
		rows, err := s.users.List(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
		}
		for _, row := range rows {
			names[row.ID] = row
		}
	}

	byUser := make(map[uuid.UUID]*UserActivitySummary)
	for i := range entries {
		entry := &entries[i]
		summary, ok := byUser[entry.UserID]
		if !ok {
			summary = &UserActivitySummary{
				UserID:  entry.UserID,
				Actions: make(map[string]int),
			}
			if user, known := names[entry.UserID]; known {
				summary.UserName = user.FullName
				summary.UserRole = user.Role
			}
			byUser[entry.UserID] = summary
		}
		summary.Actions[entry.Action]++
		summary.TotalActivities++
	}

	summaries := make([]UserActivitySummary, 0, len(byUser))
	for _, summary := range byUser {
		summaries = append(summaries, *summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].TotalActivities != summaries[j].TotalActivities {
			return summaries[i].TotalActivities > summaries[j].TotalActivities
		}
		return summaries[i].UserID.String() < summaries[j].UserID.String()
	})

	detailed := entries
	if len(detailed) > 100 {
		detailed = detailed[:100]
	}
	rows := make([]ActivityRow, 0, len(detailed))
	for i := range detailed {
		entry := &detailed[i]
		row := ActivityRow{
			ID:         entry.ID,
			UserID:     entry.UserID,
			Action:     entry.Action,
			EntityType: entry.EntityType,
			EntityID:   entry.EntityID,
			Details:    entry.Details,
			IPAddress:  entry.IPAddress,
			CreatedAt:  entry.CreatedAt,
		}
		if user, known := names[entry.UserID]; known {
			row.UserName = user.FullName
		}
		rows = append(rows, row)
	}

	return &UserActivityReport{
		GeneratedAt: time.Now().UTC(),
		Summary:     summaries,
		Activities:  rows,
	}, nil
}

func (s *Service) catalogIndexes(ctx context.Context) (map[uuid.UUID]models.Product, map[uuid.UUID]models.Location, error) {
	productRows, err := s.catalog.ListProducts(ctx, catalog.ProductListFilters{})
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	locationRows, err := s.catalog.ListLocations(ctx, false)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list locations")
	}
	products := make(map[uuid.UUID]models.Product, len(productRows))
	for _, product := range productRows {
		products[product.ID] = product
	}
	locations := make(map[uuid.UUID]models.Location, len(locationRows))
	for _, location := range locationRows {
		locations[location.ID] = location
	}
	return products, locations, nil
}

func locationCode(locations map[uuid.UUID]models.Location, id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	location, ok := locations[*id]
	if !ok {
		return nil
	}
	code := location.Code
	return &code
}
