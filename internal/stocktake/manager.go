package stocktake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/waretrack/waretrack-backend/internal/audit"
	"github.com/waretrack/waretrack-backend/internal/stock"
	"github.com/waretrack/waretrack-backend/pkg/db"
	"github.com/waretrack/waretrack-backend/pkg/db/models"
	"github.com/waretrack/waretrack-backend/pkg/enums"
	pkgerrors "github.com/waretrack/waretrack-backend/pkg/errors"
	"github.com/waretrack/waretrack-backend/pkg/logger"
	"github.com/waretrack/waretrack-backend/pkg/metrics"
)

// Manager drives the stocktake session lifecycle: open, count, then either
// complete (optionally reconciling balances) or cancel. Sessions in a
// terminal status never change again.
type Manager interface {
	Open(ctx context.Context, userID uuid.UUID, input OpenSessionInput) (*SessionWithDetails, error)
	RecordCount(ctx context.Context, userID uuid.UUID, input RecordCountInput) (*DetailDTO, error)
	Complete(ctx context.Context, userID uuid.UUID, input CompleteSessionInput) (*SessionWithDetails, error)
	Cancel(ctx context.Context, userID uuid.UUID, input CancelSessionInput) (*SessionDTO, error)
	Get(ctx context.Context, sessionID uuid.UUID) (*SessionWithDetails, error)
	List(ctx context.Context, filters SessionListFilters) ([]SessionDTO, error)
}

type sessionStore interface {
	CreateSession(ctx context.Context, tx *gorm.DB, session *models.StocktakeSession) error
	CreateDetails(ctx context.Context, tx *gorm.DB, details []models.StocktakeDetail) error
	UpdateSession(ctx context.Context, tx *gorm.DB, session *models.StocktakeSession) error
	UpdateDetail(ctx context.Context, detail *models.StocktakeDetail) error
	FindSessionByID(ctx context.Context, id uuid.UUID) (*models.StocktakeSession, error)
	FindActiveByLocation(ctx context.Context, locationID uuid.UUID) (*models.StocktakeSession, error)
	ListSessions(ctx context.Context, filters SessionListFilters) ([]models.StocktakeSession, error)
	ListDetails(ctx context.Context, sessionID uuid.UUID) ([]models.StocktakeDetail, error)
	FindDetail(ctx context.Context, sessionID, productID uuid.UUID) (*models.StocktakeDetail, error)
}

type balanceLister interface {
	ListBalances(ctx context.Context, filters stock.BalanceFilters) ([]models.StockBalance, error)
}

type locationLoader interface {
	FindLocationByID(ctx context.Context, id uuid.UUID) (*models.Location, error)
}

type adjuster interface {
	StocktakeAdjustment(ctx context.Context, userID uuid.UUID, input stock.AdjustmentInput) (*stock.OperationResult, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type auditRecorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

type manager struct {
	runner    txRunner
	store     sessionStore
	balances  balanceLister
	locations locationLoader
	engine    adjuster
	metrics   *metrics.StockMetrics
	audit     auditRecorder
	logg      *logger.Logger
}

// ManagerParams bundles the dependencies required to build the manager.
type ManagerParams struct {
	Runner    txRunner
	Store     sessionStore
	Balances  balanceLister
	Locations locationLoader
	Engine    adjuster
	Metrics   *metrics.StockMetrics
	Audit     auditRecorder
	Logger    *logger.Logger
}

// NewManager constructs a stocktake manager with the provided dependencies.
func NewManager(params ManagerParams) (Manager, error) {
	if params.Runner == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if params.Balances == nil {
		return nil, fmt.Errorf("balance lister is required")
	}
	if params.Locations == nil {
		return nil, fmt.Errorf("location loader is required")
	}
	if params.Engine == nil {
		return nil, fmt.Errorf("stock engine is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &manager{
		runner:    params.Runner,
		store:     params.Store,
		balances:  params.Balances,
		locations: params.Locations,
		engine:    params.Engine,
		metrics:   params.Metrics,
		audit:     params.Audit,
		logg:      params.Logger,
	}, nil
}

// Open starts a session and snapshots the location's current balances as the
// expected quantities. At most one active session may exist per location.
func (m *manager) Open(ctx context.Context, userID uuid.UUID, input OpenSessionInput) (*SessionWithDetails, error) {
	location, err := m.locations.FindLocationByID(ctx, input.LocationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load location")
	}
	if !location.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidOperation, "location is inactive")
	}

	existing, err := m.store.FindActiveByLocation(ctx, input.LocationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check active session")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "an active stocktake session already exists for this location")
	}

	balances, err := m.balances.ListBalances(ctx, stock.BalanceFilters{LocationID: &input.LocationID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "snapshot balances")
	}

	now := time.Now().UTC()
	session := &models.StocktakeSession{
		ID:         uuid.New(),
		LocationID: input.LocationID,
		Status:     enums.StocktakeStatusActive,
		StartedBy:  userID,
		StartDate:  now,
		Notes:      input.Notes,
	}
	details := make([]models.StocktakeDetail, 0, len(balances))
	for _, balance := range balances {
		details = append(details, models.StocktakeDetail{
			ID:               uuid.New(),
			SessionID:        session.ID,
			ProductID:        balance.ProductID,
			ExpectedQuantity: balance.Quantity,
		})
	}

	if err := m.runner.WithTx(ctx, func(tx *gorm.DB) error {
		if err := m.store.CreateSession(ctx, tx, session); err != nil {
			return err
		}
		return m.store.CreateDetails(ctx, tx, details)
	}); err != nil {
		// The partial unique index backs the one-active-session rule when
		// two opens race past the pre-check.
		if db.IsUniqueViolation(err, "idx_stocktake_sessions_active_location") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "an active stocktake session already exists for this location")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open stocktake session")
	}

	m.recordAudit(ctx, userID, "stocktake.open", session.ID, map[string]any{
		"location_id": input.LocationID.String(),
		"snapshot":    len(details),
	})
	return m.withDetails(session, details), nil
}

// RecordCount stores the physical count for one product. Re-counting the
// same product overwrites the prior value.
func (m *manager) RecordCount(ctx context.Context, userID uuid.UUID, input RecordCountInput) (*DetailDTO, error) {
	if input.CountedQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "counted_quantity must be non-negative")
	}

	session, err := m.loadSession(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	if err := ensureActive(session); err != nil {
		return nil, err
	}

	detail, err := m.store.FindDetail(ctx, input.SessionID, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product is not part of this stocktake session")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load count line")
	}

	now := time.Now().UTC()
	counted := input.CountedQuantity
	variance := counted - detail.ExpectedQuantity
	detail.CountedQuantity = &counted
	detail.Variance = &variance
	detail.Notes = input.Notes
	detail.CountedBy = &userID
	detail.CountedAt = &now

	if err := m.store.UpdateDetail(ctx, detail); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save count line")
	}
	return NewDetailDTO(detail), nil
}

// Complete closes an active session. Every product must be counted first.
// With ApplyAdjustments set, each line is reconciled to its counted
// quantity through the transaction engine before the session is marked
// completed.
func (m *manager) Complete(ctx context.Context, userID uuid.UUID, input CompleteSessionInput) (*SessionWithDetails, error) {
	session, err := m.loadSession(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	if err := ensureActive(session); err != nil {
		return nil, err
	}

	details, err := m.store.ListDetails(ctx, input.SessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load count lines")
	}

	var uncounted []uuid.UUID
	for _, detail := range details {
		if detail.CountedQuantity == nil {
			uncounted = append(uncounted, detail.ProductID)
		}
	}
	if len(uncounted) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeIncompleteCount, "all products must be counted before completing").
			WithDetails(IncompleteCountDetails{UncountedCount: len(uncounted), UncountedProducts: uncounted})
	}

	if input.ApplyAdjustments {
		reference := session.ID.String()
		for i := range details {
			detail := &details[i]
			// Reconcile every line to its counted quantity. The engine sets
			// the balance absolutely and skips lines already on hand, so
			// stock that moved since the count cannot skew the result.
			result, err := m.engine.StocktakeAdjustment(ctx, userID, stock.AdjustmentInput{
				ProductID:       detail.ProductID,
				LocationID:      session.LocationID,
				NewQuantity:     *detail.CountedQuantity,
				ReferenceNumber: &reference,
			})
			if err != nil {
				return nil, err
			}
			if result.Transaction != nil {
				m.metrics.IncVariance()
			}
		}
	}

	now := time.Now().UTC()
	session.Status = enums.StocktakeStatusCompleted
	session.CompletedBy = &userID
	session.EndDate = &now
	if input.Notes != nil {
		session.Notes = appendNote(session.Notes, *input.Notes)
	}
	if err := m.store.UpdateSession(ctx, nil, session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete session")
	}

	m.metrics.IncSessionClosed(enums.StocktakeStatusCompleted.String())
	m.recordAudit(ctx, userID, "stocktake.complete", session.ID, map[string]any{
		"location_id":         session.LocationID.String(),
		"applied_adjustments": input.ApplyAdjustments,
	})
	return m.withDetails(session, details), nil
}

// Cancel abandons an active session without touching balances. The reason is
// appended to the session notes.
func (m *manager) Cancel(ctx context.Context, userID uuid.UUID, input CancelSessionInput) (*SessionDTO, error) {
	session, err := m.loadSession(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	if err := ensureActive(session); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session.Status = enums.StocktakeStatusCancelled
	session.CompletedBy = &userID
	session.EndDate = &now
	if reason := strings.TrimSpace(input.Reason); reason != "" {
		session.Notes = appendNote(session.Notes, "Cancelled: "+reason)
	}
	if err := m.store.UpdateSession(ctx, nil, session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel session")
	}

	m.metrics.IncSessionClosed(enums.StocktakeStatusCancelled.String())
	m.recordAudit(ctx, userID, "stocktake.cancel", session.ID, map[string]any{
		"location_id": session.LocationID.String(),
	})
	return NewSessionDTO(session), nil
}

// Get loads one session with its count lines.
func (m *manager) Get(ctx context.Context, sessionID uuid.UUID) (*SessionWithDetails, error) {
	session, err := m.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	details, err := m.store.ListDetails(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load count lines")
	}
	return m.withDetails(session, details), nil
}

// List returns sessions matching the filters.
func (m *manager) List(ctx context.Context, filters SessionListFilters) ([]SessionDTO, error) {
	rows, err := m.store.ListSessions(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sessions")
	}
	dtos := make([]SessionDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *NewSessionDTO(&rows[i]))
	}
	return dtos, nil
}

func (m *manager) loadSession(ctx context.Context, sessionID uuid.UUID) (*models.StocktakeSession, error) {
	session, err := m.store.FindSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stocktake session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	return session, nil
}

func (m *manager) withDetails(session *models.StocktakeSession, details []models.StocktakeDetail) *SessionWithDetails {
	dtos := make([]DetailDTO, 0, len(details))
	for i := range details {
		dtos = append(dtos, *NewDetailDTO(&details[i]))
	}
	return &SessionWithDetails{
		Session: *NewSessionDTO(session),
		Details: dtos,
	}
}

func (m *manager) recordAudit(ctx context.Context, userID uuid.UUID, action string, sessionID uuid.UUID, details map[string]any) {
	if m.audit == nil {
		return
	}
	m.audit.Record(ctx, audit.Entry{
		UserID:     userID,
		Action:     action,
		EntityType: "stocktake_session",
		EntityID:   sessionID.String(),
		Details:    details,
	})
}

func ensureActive(session *models.StocktakeSession) error {
	if session.Status != enums.StocktakeStatusActive {
		return pkgerrors.New(pkgerrors.CodeInvalidState,
			fmt.Sprintf("session is %s; only active sessions can change", session.Status))
	}
	return nil
}

func appendNote(existing *string, note string) *string {
	if existing == nil || strings.TrimSpace(*existing) == "" {
		return &note
	}
	combined := *existing + "\n" + note
	return &combined
}
