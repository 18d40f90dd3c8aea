package stock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/waretrack/waretrack-backend/internal/audit"
	"github.com/waretrack/waretrack-backend/pkg/db"
	"github.com/waretrack/waretrack-backend/pkg/db/models"
	"github.com/waretrack/waretrack-backend/pkg/enums"
	pkgerrors "github.com/waretrack/waretrack-backend/pkg/errors"
	"github.com/waretrack/waretrack-backend/pkg/logger"
	"github.com/waretrack/waretrack-backend/pkg/metrics"
)

// Engine executes stock transactions. Every operation writes the ledger
// entry and the balance mutation in one database transaction; either both
// commit or neither does.
type Engine interface {
	Inbound(ctx context.Context, userID uuid.UUID, input InboundInput) (*OperationResult, error)
	Outbound(ctx context.Context, userID uuid.UUID, input OutboundInput) (*OperationResult, error)
	Move(ctx context.Context, userID uuid.UUID, input MoveInput) (*MoveResult, error)
	StocktakeAdjustment(ctx context.Context, userID uuid.UUID, input AdjustmentInput) (*OperationResult, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ledgerStore interface {
	CreditBalance(ctx context.Context, tx *gorm.DB, productID, locationID uuid.UUID, qty int) error
	DebitBalance(ctx context.Context, tx *gorm.DB, productID, locationID uuid.UUID, qty int) (bool, error)
	SetBalance(ctx context.Context, tx *gorm.DB, productID, locationID uuid.UUID, qty int) error
	BalanceQuantity(ctx context.Context, tx *gorm.DB, productID, locationID uuid.UUID) (int, error)
	InsertTransaction(ctx context.Context, tx *gorm.DB, entry *models.StockTransaction) error
}

type productLoader interface {
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type locationLoader interface {
	FindLocationByID(ctx context.Context, id uuid.UUID) (*models.Location, error)
}

type auditRecorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

type engine struct {
	runner    txRunner
	store     ledgerStore
	products  productLoader
	locations locationLoader
	metrics   *metrics.StockMetrics
	audit     auditRecorder
	logg      *logger.Logger
	retries   int
}

// EngineParams bundles the dependencies required to build the engine.
type EngineParams struct {
	Runner    txRunner
	Store     ledgerStore
	Products  productLoader
	Locations locationLoader
	Metrics   *metrics.StockMetrics
	Audit     auditRecorder
	Logger    *logger.Logger
	Retries   int
}

// NewEngine constructs a transaction engine with the provided dependencies.
func NewEngine(params EngineParams) (Engine, error) {
	if params.Runner == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("ledger store is required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product loader is required")
	}
	if params.Locations == nil {
		return nil, fmt.Errorf("location loader is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	retries := params.Retries
	if retries < 0 {
		retries = 0
	}
	return &engine{
		runner:    params.Runner,
		store:     params.Store,
		products:  params.Products,
		locations: params.Locations,
		metrics:   params.Metrics,
		audit:     params.Audit,
		logg:      params.Logger,
		retries:   retries,
	}, nil
}

// Inbound receives quantity into a location.
func (e *engine) Inbound(ctx context.Context, userID uuid.UUID, input InboundInput) (*OperationResult, error) {
	if err := validateQuantity(input.Quantity); err != nil {
		return nil, e.reject(enums.TransactionTypeInbound, err)
	}
	if err := e.ensureProduct(ctx, input.ProductID); err != nil {
		return nil, e.reject(enums.TransactionTypeInbound, err)
	}
	if err := e.ensureLocation(ctx, input.ToLocationID); err != nil {
		return nil, e.reject(enums.TransactionTypeInbound, err)
	}

	entry := &models.StockTransaction{
		Type:            enums.TransactionTypeInbound,
		ProductID:       input.ProductID,
		ToLocationID:    &input.ToLocationID,
		Quantity:        input.Quantity,
		ReferenceNumber: input.ReferenceNumber,
		Notes:           input.Notes,
		UserID:          userID,
	}
	var newBalance int
	err := e.commit(ctx, enums.TransactionTypeInbound, func(tx *gorm.DB) error {
		if err := e.store.CreditBalance(ctx, tx, input.ProductID, input.ToLocationID, input.Quantity); err != nil {
			return err
		}
		var err error
		newBalance, err = e.store.BalanceQuantity(ctx, tx, input.ProductID, input.ToLocationID)
		if err != nil {
			return err
		}
		return e.append(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}
	e.recordAudit(ctx, entry)
	return &OperationResult{Transaction: NewTransactionDTO(entry), NewBalance: newBalance}, nil
}

// Outbound dispatches quantity out of a location. When stock is short the
// operation is rejected without writing anything.
func (e *engine) Outbound(ctx context.Context, userID uuid.UUID, input OutboundInput) (*OperationResult, error) {
	if err := validateQuantity(input.Quantity); err != nil {
		return nil, e.reject(enums.TransactionTypeOutbound, err)
	}
	if err := e.ensureProduct(ctx, input.ProductID); err != nil {
		return nil, e.reject(enums.TransactionTypeOutbound, err)
	}
	if err := e.ensureLocation(ctx, input.FromLocationID); err != nil {
		return nil, e.reject(enums.TransactionTypeOutbound, err)
	}

	entry := &models.StockTransaction{
		Type:            enums.TransactionTypeOutbound,
		ProductID:       input.ProductID,
		FromLocationID:  &input.FromLocationID,
		Quantity:        input.Quantity,
		ReferenceNumber: input.ReferenceNumber,
		Notes:           input.Notes,
		UserID:          userID,
	}
	var newBalance int
	err := e.commit(ctx, enums.TransactionTypeOutbound, func(tx *gorm.DB) error {
		if err := e.debit(ctx, tx, input.ProductID, input.FromLocationID, input.Quantity); err != nil {
			return err
		}
		var err error
		newBalance, err = e.store.BalanceQuantity(ctx, tx, input.ProductID, input.FromLocationID)
		if err != nil {
			return err
		}
		return e.append(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}
	e.recordAudit(ctx, entry)
	return &OperationResult{Transaction: NewTransactionDTO(entry), NewBalance: newBalance}, nil
}

// Move transfers quantity between two locations in one atomic step.
func (e *engine) Move(ctx context.Context, userID uuid.UUID, input MoveInput) (*MoveResult, error) {
	if err := validateQuantity(input.Quantity); err != nil {
		return nil, e.reject(enums.TransactionTypeMove, err)
	}
	if input.FromLocationID == input.ToLocationID {
		return nil, e.reject(enums.TransactionTypeMove,
			pkgerrors.New(pkgerrors.CodeInvalidOperation, "source and destination locations must differ"))
	}
	if err := e.ensureProduct(ctx, input.ProductID); err != nil {
		return nil, e.reject(enums.TransactionTypeMove, err)
	}
	if err := e.ensureLocation(ctx, input.FromLocationID); err != nil {
		return nil, e.reject(enums.TransactionTypeMove, err)
	}
	if err := e.ensureLocation(ctx, input.ToLocationID); err != nil {
		return nil, e.reject(enums.TransactionTypeMove, err)
	}

	entry := &models.StockTransaction{
		Type:            enums.TransactionTypeMove,
		ProductID:       input.ProductID,
		FromLocationID:  &input.FromLocationID,
		ToLocationID:    &input.ToLocationID,
		Quantity:        input.Quantity,
		ReferenceNumber: input.ReferenceNumber,
		Notes:           input.Notes,
		UserID:          userID,
	}
	var fromBalance, toBalance int
	err := e.commit(ctx, enums.TransactionTypeMove, func(tx *gorm.DB) error {
		if err := e.debit(ctx, tx, input.ProductID, input.FromLocationID, input.Quantity); err != nil {
			return err
		}
		if err := e.store.CreditBalance(ctx, tx, input.ProductID, input.ToLocationID, input.Quantity); err != nil {
			return err
		}
		var err error
		fromBalance, err = e.store.BalanceQuantity(ctx, tx, input.ProductID, input.FromLocationID)
		if err != nil {
			return err
		}
		toBalance, err = e.store.BalanceQuantity(ctx, tx, input.ProductID, input.ToLocationID)
		if err != nil {
			return err
		}
		return e.append(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}
	e.recordAudit(ctx, entry)
	return &MoveResult{Transaction: NewTransactionDTO(entry), FromBalance: fromBalance, ToBalance: toBalance}, nil
}

// StocktakeAdjustment reconciles a balance to the counted quantity. The
// balance is set absolutely, never by delta, so stock that moved between the
// count and the reconciliation cannot skew the result. The ledger entry
// records the magnitude of the change and its direction; an adjustment to
// the current quantity writes nothing.
func (e *engine) StocktakeAdjustment(ctx context.Context, userID uuid.UUID, input AdjustmentInput) (*OperationResult, error) {
	if input.NewQuantity < 0 {
		return nil, e.reject(enums.TransactionTypeAdjustment,
			pkgerrors.New(pkgerrors.CodeInvalidOperation, "quantity must not be negative"))
	}
	if err := e.ensureProduct(ctx, input.ProductID); err != nil {
		return nil, e.reject(enums.TransactionTypeAdjustment, err)
	}
	if err := e.ensureLocation(ctx, input.LocationID); err != nil {
		return nil, e.reject(enums.TransactionTypeAdjustment, err)
	}

	var result OperationResult
	var entry *models.StockTransaction
	err := e.commit(ctx, enums.TransactionTypeAdjustment, func(tx *gorm.DB) error {
		current, err := e.store.BalanceQuantity(ctx, tx, input.ProductID, input.LocationID)
		if err != nil {
			return err
		}
		if current == input.NewQuantity {
			entry = nil
			result = OperationResult{NewBalance: current}
			return nil
		}

		direction := enums.StockDirectionUp
		magnitude := input.NewQuantity - current
		if magnitude < 0 {
			direction = enums.StockDirectionDown
			magnitude = -magnitude
		}
		if err := e.store.SetBalance(ctx, tx, input.ProductID, input.LocationID, input.NewQuantity); err != nil {
			return err
		}
		entry = &models.StockTransaction{
			Type:            enums.TransactionTypeAdjustment,
			ProductID:       input.ProductID,
			ToLocationID:    &input.LocationID,
			Quantity:        magnitude,
			Direction:       &direction,
			ReferenceNumber: input.ReferenceNumber,
			Notes:           input.Notes,
			UserID:          userID,
		}
		if err := e.append(ctx, tx, entry); err != nil {
			return err
		}
		result = OperationResult{Transaction: NewTransactionDTO(entry), NewBalance: input.NewQuantity}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if entry != nil {
		e.recordAudit(ctx, entry)
	}
	return &result, nil
}

// commit runs the balance mutation and ledger append in one transaction,
// retrying transient storage conflicts a bounded number of times before
// surfacing INTERNAL.
func (e *engine) commit(ctx context.Context, txType enums.TransactionType, run func(tx *gorm.DB) error) error {
	start := time.Now()

	var err error
	for attempt := 0; ; attempt++ {
		err = e.runner.WithTx(ctx, run)
		if err == nil {
			break
		}
		if attempt < e.retries && db.IsSerializationFailure(pkgerrors.SQLState(err)) {
			e.metrics.IncRetry(txType.String())
			e.logg.Warn(e.logg.WithField(ctx, "attempt", attempt+1), "stock: retrying after storage conflict")
			continue
		}
		if typed := pkgerrors.As(err); typed != nil {
			return e.reject(txType, typed)
		}
		return e.reject(txType, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "commit stock transaction"))
	}

	e.metrics.ObserveDuration(txType.String(), time.Since(start))
	e.metrics.IncSuccess(txType.String())
	return nil
}

// append stamps the entry with its id, code and timestamp, then writes it to
// the ledger. Called inside the operation transaction; a retry re-stamps.
func (e *engine) append(ctx context.Context, tx *gorm.DB, entry *models.StockTransaction) error {
	entry.ID = uuid.New()
	now := time.Now().UTC()
	entry.TransactionDate = now
	code, err := NewTransactionCode(entry.Type, now)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate transaction code")
	}
	entry.Code = code
	return e.store.InsertTransaction(ctx, tx, entry)
}

// debit applies the conditional decrement; when it matches no rows the
// current balance is re-read to report how short the request was.
func (e *engine) debit(ctx context.Context, tx *gorm.DB, productID, locationID uuid.UUID, qty int) error {
	ok, err := e.store.DebitBalance(ctx, tx, productID, locationID, qty)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	current, err := e.store.BalanceQuantity(ctx, tx, productID, locationID)
	if err != nil {
		return err
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
		WithDetails(InsufficientStockDetails{CurrentStock: current, Requested: qty})
}

func (e *engine) ensureProduct(ctx context.Context, productID uuid.UUID) error {
	product, err := e.products.FindProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return pkgerrors.New(pkgerrors.CodeInvalidOperation, "product is inactive")
	}
	return nil
}

func (e *engine) ensureLocation(ctx context.Context, locationID uuid.UUID) error {
	location, err := e.locations.FindLocationByID(ctx, locationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load location")
	}
	if !location.IsActive {
		return pkgerrors.New(pkgerrors.CodeInvalidOperation, "location is inactive")
	}
	return nil
}

func (e *engine) reject(txType enums.TransactionType, err error) error {
	e.metrics.IncFailure(txType.String())
	return err
}

func (e *engine) recordAudit(ctx context.Context, entry *models.StockTransaction) {
	if e.audit == nil {
		return
	}
	details := map[string]any{
		"code":     entry.Code,
		"type":     entry.Type.String(),
		"quantity": entry.Quantity,
	}
	if entry.FromLocationID != nil {
		details["from_location_id"] = entry.FromLocationID.String()
	}
	if entry.ToLocationID != nil {
		details["to_location_id"] = entry.ToLocationID.String()
	}
	e.audit.Record(ctx, audit.Entry{
		UserID:     entry.UserID,
		Action:     "stock." + entry.Type.String(),
		EntityType: "stock_transaction",
		EntityID:   entry.ID.String(),
		Details:    details,
	})
}

func validateQuantity(qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidOperation, "quantity must be positive")
	}
	return nil
}
