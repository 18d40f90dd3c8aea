package stocktake

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/waretrack/waretrack-backend/internal/stock"
	"github.com/waretrack/waretrack-backend/pkg/db/models"
	"github.com/waretrack/waretrack-backend/pkg/enums"
	pkgerrors "github.com/waretrack/waretrack-backend/pkg/errors"
	"github.com/waretrack/waretrack-backend/pkg/logger"
)

func errCode(t *testing.T, err error) pkgerrors.Code {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	return typed.Code()
}

type detailKey struct {
	sessionID uuid.UUID
	productID uuid.UUID
}

type stubSessionStore struct {
	sessions map[uuid.UUID]*models.StocktakeSession
	details  map[detailKey]*models.StocktakeDetail
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{
		sessions: make(map[uuid.UUID]*models.StocktakeSession),
		details:  make(map[detailKey]*models.StocktakeDetail),
	}
}

func (s *stubSessionStore) CreateSession(ctx context.Context, tx *gorm.DB, session *models.StocktakeSession) error {
	copied := *session
	s.sessions[session.ID] = &copied
	return nil
}

func (s *stubSessionStore) CreateDetails(ctx context.Context, tx *gorm.DB, details []models.StocktakeDetail) error {
	for i := range details {
		copied := details[i]
		s.details[detailKey{copied.SessionID, copied.ProductID}] = &copied
	}
	return nil
}

func (s *stubSessionStore) UpdateSession(ctx context.Context, tx *gorm.DB, session *models.StocktakeSession) error {
	copied := *session
	s.sessions[session.ID] = &copied
	return nil
}

func (s *stubSessionStore) UpdateDetail(ctx context.Context, detail *models.StocktakeDetail) error {
	copied := *detail
	s.details[detailKey{detail.SessionID, detail.ProductID}] = &copied
	return nil
}

func (s *stubSessionStore) FindSessionByID(ctx context.Context, id uuid.UUID) (*models.StocktakeSession, error) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *session
	return &copied, nil
}

func (s *stubSessionStore) FindActiveByLocation(ctx context.Context, locationID uuid.UUID) (*models.StocktakeSession, error) {
	for _, session := range s.sessions {
		if session.LocationID == locationID && session.Status == enums.StocktakeStatusActive {
			copied := *session
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *stubSessionStore) ListSessions(ctx context.Context, filters SessionListFilters) ([]models.StocktakeSession, error) {
	var out []models.StocktakeSession
	for _, session := range s.sessions {
		if filters.LocationID != nil && session.LocationID != *filters.LocationID {
			continue
		}
		if filters.Status != nil && session.Status != *filters.Status {
			continue
		}
		out = append(out, *session)
	}
	return out, nil
}

func (s *stubSessionStore) ListDetails(ctx context.Context, sessionID uuid.UUID) ([]models.StocktakeDetail, error) {
	var out []models.StocktakeDetail
	for key, detail := range s.details {
		if key.sessionID == sessionID {
			out = append(out, *detail)
		}
	}
	return out, nil
}

func (s *stubSessionStore) FindDetail(ctx context.Context, sessionID, productID uuid.UUID) (*models.StocktakeDetail, error) {
	detail, ok := s.details[detailKey{sessionID, productID}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *detail
	return &copied, nil
}

type stubBalanceLister struct {
	balances []models.StockBalance
}

func (s *stubBalanceLister) ListBalances(ctx context.Context, filters stock.BalanceFilters) ([]models.StockBalance, error) {
	var out []models.StockBalance
	for _, balance := range s.balances {
		if filters.LocationID != nil && balance.LocationID != *filters.LocationID {
			continue
		}
		out = append(out, balance)
	}
	return out, nil
}

type stubLocationLoader struct {
	locations map[uuid.UUID]*models.Location
}

func (s *stubLocationLoader) FindLocationByID(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	location, ok := s.locations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return location, nil
}

type adjustmentCall struct {
	input stock.AdjustmentInput
}

type stubAdjuster struct {
	calls  []adjustmentCall
	onHand map[uuid.UUID]int
	err    error
}

func (s *stubAdjuster) StocktakeAdjustment(ctx context.Context, userID uuid.UUID, input stock.AdjustmentInput) (*stock.OperationResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.calls = append(s.calls, adjustmentCall{input: input})
	result := &stock.OperationResult{NewBalance: input.NewQuantity}
	if input.NewQuantity != s.onHand[input.ProductID] {
		result.Transaction = &stock.TransactionDTO{ID: uuid.New()}
	}
	return result, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type managerFixture struct {
	manager   Manager
	store     *stubSessionStore
	balances  *stubBalanceLister
	locations *stubLocationLoader
	adjuster  *stubAdjuster
	userID    uuid.UUID
}

func newManagerFixture(t *testing.T) *managerFixture {
	t.Helper()
	fixture := &managerFixture{
		store:     newStubSessionStore(),
		balances:  &stubBalanceLister{},
		locations: &stubLocationLoader{locations: make(map[uuid.UUID]*models.Location)},
		adjuster:  &stubAdjuster{onHand: make(map[uuid.UUID]int)},
		userID:    uuid.New(),
	}
	manager, err := NewManager(ManagerParams{
		Runner:    stubTxRunner{},
		Store:     fixture.store,
		Balances:  fixture.balances,
		Locations: fixture.locations,
		Engine:    fixture.adjuster,
		Logger:    logger.New(logger.Options{Level: zerolog.ErrorLevel}),
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	fixture.manager = manager
	return fixture
}

func (f *managerFixture) addLocation(active bool) uuid.UUID {
	id := uuid.New()
	f.locations.locations[id] = &models.Location{ID: id, Code: "LOC-" + id.String()[:4], IsActive: active}
	return id
}

func (f *managerFixture) addBalance(productID, locationID uuid.UUID, qty int) {
	f.balances.balances = append(f.balances.balances, models.StockBalance{
		ProductID:  productID,
		LocationID: locationID,
		Quantity:   qty,
	})
	f.adjuster.onHand[productID] = qty
}

func TestManagerOpenSnapshotsBalances(t *testing.T) {
	fixture := newManagerFixture(t)
	locationID := fixture.addLocation(true)
	productA := uuid.New()
	productB := uuid.New()
	fixture.addBalance(productA, locationID, 12)
	fixture.addBalance(productB, locationID, 3)
	fixture.addBalance(uuid.New(), uuid.New(), 99)

	result, err := fixture.manager.Open(context.Background(), fixture.userID, OpenSessionInput{LocationID: locationID})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if result.Session.Status != enums.StocktakeStatusActive {
		t.Fatalf("status = %s, want active", result.Session.Status)
	}
	if len(result.Details) != 2 {
		t.Fatalf("details = %d, want 2 (only this location's balances)", len(result.Details))
	}
	for _, detail := range result.Details {
		if detail.CountedQuantity != nil {
			t.Fatalf("new detail already counted")
		}
		want := 12
		if detail.ProductID == productB {
			want = 3
		}
		if detail.ExpectedQuantity != want {
			t.Fatalf("expected quantity = %d, want %d", detail.ExpectedQuantity, want)
		}
	}
}

func TestManagerOpenRejectsSecondActiveSession(t *testing.T) {
	fixture := newManagerFixture(t)
	locationID := fixture.addLocation(true)

	if _, err := fixture.manager.Open(context.Background(), fixture.userID, OpenSessionInput{LocationID: locationID}); err != nil {
		t.Fatalf("first Open: %v", err)
	}
	_, err := fixture.manager.Open(context.Background(), fixture.userID, OpenSessionInput{LocationID: locationID})
	if errCode(t, err) != pkgerrors.CodeConflict {
		t.Fatalf("code = %v, want %v", errCode(t, err), pkgerrors.CodeConflict)
	}
}

func TestManagerOpenRejectsInactiveLocation(t *testing.T) {
	fixture := newManagerFixture(t)
	locationID := fixture.addLocation(false)

	_, err := fixture.manager.Open(context.Background(), fixture.userID, OpenSessionInput{LocationID: locationID})
	if errCode(t, err) != pkgerrors.CodeInvalidOperation {
		t.Fatalf("code = %v, want %v", errCode(t, err), pkgerrors.CodeInvalidOperation)
	}
}

func TestManagerRecordCountLastWriteWins(t *testing.T) {
	fixture := newManagerFixture(t)
	locationID := fixture.addLocation(true)
	productID := uuid.New()
	fixture.addBalance(productID, locationID, 10)

	opened, err := fixture.manager.Open(context.Background(), fixture.userID, OpenSessionInput{LocationID: locationID})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	sessionID := opened.Session.ID

	first, err := fixture.manager.RecordCount(context.Background(), fixture.userID, RecordCountInput{
		SessionID: sessionID, ProductID: productID, CountedQuantity: 8,
	})
	if err != nil {
		t.Fatalf("first RecordCount: %v", err)
	}
	if first.Variance == nil || *first.Variance != -2 {
		t.Fatalf("variance = %v, want -2", first.Variance)
	}

	second, err := fixture.manager.RecordCount(context.Background(), fixture.userID, RecordCountInput{
		SessionID: sessionID, ProductID: productID, CountedQuantity: 11,
	})
	if err != nil {
		t.Fatalf("second RecordCount: %v", err)
	}
	if second.CountedQuantity == nil || *second.CountedQuantity != 11 {
		t.Fatalf("counted = %v, want 11", second.CountedQuantity)
	}
	if second.Variance == nil || *second.Variance != 1 {
		t.Fatalf("variance = %v, want 1", second.Variance)
	}
}

func TestManagerRecordCountUnknownProduct(t *testing.T) {
	fixture := newManagerFixture(t)
	locationID := fixture.addLocation(true)
	fixture.addBalance(uuid.New(), locationID, 5)

	opened, err := fixture.manager.Open(context.Background(), fixture.userID, OpenSessionInput{LocationID: locationID})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	_, err = fixture.manager.RecordCount(context.Background(), fixture.userID, RecordCountInput{
		SessionID: opened.Session.ID, ProductID: uuid.New(), CountedQuantity: 1,
	})
	if errCode(t, err) != pkgerrors.CodeNotFound {
		t.Fatalf("code = %v, want %v", errCode(t, err), pkgerrors.CodeNotFound)
	}
}

func TestManagerRecordCountRejectsNegative(t *testing.T) {
	fixture := newManagerFixture(t)
	_, err := fixture.manager.RecordCount(context.Background(), fixture.userID, RecordCountInput{
		SessionID: uuid.New(), ProductID: uuid.New(), CountedQuantity: -1,
	})
	if errCode(t, err) != pkgerrors.CodeValidation {
		t.Fatalf("code = %v, want %v", errCode(t, err), pkgerrors.CodeValidation)
	}
}

func TestManagerRecordCountOnTerminalSession(t *testing.T) {
	fixture := newManagerFixture(t)
	locationID := fixture.addLocation(true)

	opened, err := fixture.manager.Open(context.Background(), fixture.userID, OpenSessionInput{LocationID: locationID})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := fixture.manager.Cancel(context.Background(), fixture.userID, CancelSessionInput{SessionID: opened.Session.ID}); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	_, err = fixture.manager.RecordCount(context.Background(), fixture.userID, RecordCountInput{
		SessionID: opened.Session.ID, ProductID: uuid.New(), CountedQuantity: 4,
	})
	if errCode(t, err) != pkgerrors.CodeInvalidState {
		t.Fatalf("code = %v, want %v", errCode(t, err), pkgerrors.CodeInvalidState)
	}
}

func TestManagerCompleteRequiresAllCounted(t *testing.T) {
	fixture := newManagerFixture(t)
	locationID := fixture.addLocation(true)
	countedProduct := uuid.New()
	uncountedProduct := uuid.New()
	fixture.addBalance(countedProduct, locationID, 4)
	fixture.addBalance(uncountedProduct, locationID, 7)

	opened, err := fixture.manager.Open(context.Background(), fixture.userID, OpenSessionInput{LocationID: locationID})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := fixture.manager.RecordCount(context.Background(), fixture.userID, RecordCountInput{
		SessionID: opened.Session.ID, ProductID: countedProduct, CountedQuantity: 4,
	}); err != nil {
		t.Fatalf("RecordCount: %v", err)
	}

	_, err = fixture.manager.Complete(context.Background(), fixture.userID, CompleteSessionInput{SessionID: opened.Session.ID})
	if errCode(t, err) != pkgerrors.CodeIncompleteCount {
		t.Fatalf("code = %v, want %v", errCode(t, err), pkgerrors.CodeIncompleteCount)
	}
	details, ok := pkgerrors.As(err).Details().(IncompleteCountDetails)
	if !ok {
		t.Fatalf("details type = %T, want IncompleteCountDetails", pkgerrors.As(err).Details())
	}
	if details.UncountedCount != 1 {
		t.Fatalf("uncounted count = %d, want 1", details.UncountedCount)
	}
	if len(details.UncountedProducts) != 1 || details.UncountedProducts[0] != uncountedProduct {
		t.Fatalf("uncounted = %v, want [%s]", details.UncountedProducts, uncountedProduct)
	}

	session, err := fixture.store.FindSessionByID(context.Background(), opened.Session.ID)
	if err != nil {
		t.Fatalf("FindSessionByID: %v", err)
	}
	if session.Status != enums.StocktakeStatusActive {
		t.Fatalf("status = %s, want active after failed complete", session.Status)
	}
}

func TestManagerCompleteAppliesAdjustmentsForVariances(t *testing.T) {
	fixture := newManagerFixture(t)
	locationID := fixture.addLocation(true)
	overProduct := uuid.New()  // counted above expected
	underProduct := uuid.New() // counted below expected
	exactProduct := uuid.New() // counted matches
	fixture.addBalance(overProduct, locationID, 10)
	fixture.addBalance(underProduct, locationID, 10)
	fixture.addBalance(exactProduct, locationID, 10)

	opened, err := fixture.manager.Open(context.Background(), fixture.userID, OpenSessionInput{LocationID: locationID})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	sessionID := opened.Session.ID
	counts := map[uuid.UUID]int{overProduct: 13, underProduct: 6, exactProduct: 10}
	for productID, counted := range counts {
		if _, err := fixture.manager.RecordCount(context.Background(), fixture.userID, RecordCountInput{
			SessionID: sessionID, ProductID: productID, CountedQuantity: counted,
		}); err != nil {
			t.Fatalf("RecordCount(%s): %v", productID, err)
		}
	}

	result, err := fixture.manager.Complete(context.Background(), fixture.userID, CompleteSessionInput{
		SessionID:        sessionID,
		ApplyAdjustments: true,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if result.Session.Status != enums.StocktakeStatusCompleted {
		t.Fatalf("status = %s, want completed", result.Session.Status)
	}
	if result.Session.EndDate == nil || result.Session.CompletedBy == nil {
		t.Fatalf("end date and completed_by must be set")
	}

	// Every counted line is reconciled to its counted quantity; the engine
	// decides whether a ledger entry is needed.
	if len(fixture.adjuster.calls) != 3 {
		t.Fatalf("adjustments = %d, want one per counted line", len(fixture.adjuster.calls))
	}
	seen := make(map[uuid.UUID]int)
	for _, call := range fixture.adjuster.calls {
		if call.input.LocationID != locationID {
			t.Fatalf("adjustment location = %s, want %s", call.input.LocationID, locationID)
		}
		if call.input.ReferenceNumber == nil || *call.input.ReferenceNumber != sessionID.String() {
			t.Fatalf("reference = %v, want session id", call.input.ReferenceNumber)
		}
		seen[call.input.ProductID] = call.input.NewQuantity
	}
	for productID, counted := range counts {
		if got, ok := seen[productID]; !ok || got != counted {
			t.Fatalf("product %s reconciled to %d, want counted %d", productID, got, counted)
		}
	}
}

func TestManagerCompleteWithoutAdjustments(t *testing.T) {
	fixture := newManagerFixture(t)
	locationID := fixture.addLocation(true)
	productID := uuid.New()
	fixture.addBalance(productID, locationID, 5)

	opened, err := fixture.manager.Open(context.Background(), fixture.userID, OpenSessionInput{LocationID: locationID})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := fixture.manager.RecordCount(context.Background(), fixture.userID, RecordCountInput{
		SessionID: opened.Session.ID, ProductID: productID, CountedQuantity: 2,
	}); err != nil {
		t.Fatalf("RecordCount: %v", err)
	}

	if _, err := fixture.manager.Complete(context.Background(), fixture.userID, CompleteSessionInput{SessionID: opened.Session.ID}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(fixture.adjuster.calls) != 0 {
		t.Fatalf("adjustments = %d, want 0 when not requested", len(fixture.adjuster.calls))
	}
}

func TestManagerCancelAppendsReason(t *testing.T) {
	fixture := newManagerFixture(t)
	locationID := fixture.addLocation(true)
	notes := "monthly count"

	opened, err := fixture.manager.Open(context.Background(), fixture.userID, OpenSessionInput{
		LocationID: locationID,
		Notes:      &notes,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	cancelled, err := fixture.manager.Cancel(context.Background(), fixture.userID, CancelSessionInput{
		SessionID: opened.Session.ID,
		Reason:    "forklift blocked the aisle",
	})
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != enums.StocktakeStatusCancelled {
		t.Fatalf("status = %s, want cancelled", cancelled.Status)
	}
	if cancelled.Notes == nil ||
		!strings.Contains(*cancelled.Notes, "monthly count") ||
		!strings.Contains(*cancelled.Notes, "Cancelled: forklift blocked the aisle") {
		t.Fatalf("notes = %v, want original notes plus cancel reason", cancelled.Notes)
	}

	_, err = fixture.manager.Cancel(context.Background(), fixture.userID, CancelSessionInput{SessionID: opened.Session.ID})
	if errCode(t, err) != pkgerrors.CodeInvalidState {
		t.Fatalf("code = %v, want %v", errCode(t, err), pkgerrors.CodeInvalidState)
	}
}
