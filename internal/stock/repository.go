package stock

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/waretrack/waretrack-backend/pkg/db/models"
	"github.com/waretrack/waretrack-backend/pkg/pagination"
)

// Repository persists balances and the append-only transaction ledger.
// Write-path methods accept an optional transaction handle so the engine can
// group a balance update and its ledger entry atomically.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// CreditBalance adds quantity to the (product, location) balance, creating
// the row when absent.
func (r *Repository) CreditBalance(ctx context.Context, tx *gorm.DB, productID, locationID uuid.UUID, qty int) error {
	return r.conn(tx).WithContext(ctx).Exec(`
		INSERT INTO stock_balances (product_id, location_id, quantity, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (product_id, location_id)
		DO UPDATE SET quantity = stock_balances.quantity + ?,
			updated_at = CURRENT_TIMESTAMP
	`, productID, locationID, qty, qty).Error
}

// DebitBalance subtracts quantity only when enough stock is on hand. The
// WHERE guard makes concurrent debits serialize on the row: the losing
// writer matches zero rows instead of driving the balance negative.
func (r *Repository) DebitBalance(ctx context.Context, tx *gorm.DB, productID, locationID uuid.UUID, qty int) (bool, error) {
	res := r.conn(tx).WithContext(ctx).Exec(`
		UPDATE stock_balances
		SET quantity = quantity - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE product_id = ? AND location_id = ? AND quantity >= ?
	`, qty, productID, locationID, qty)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SetBalance writes the (product, location) quantity absolutely, creating
// the row when absent.
func (r *Repository) SetBalance(ctx context.Context, tx *gorm.DB, productID, locationID uuid.UUID, qty int) error {
	return r.conn(tx).WithContext(ctx).Exec(`
		INSERT INTO stock_balances (product_id, location_id, quantity, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (product_id, location_id)
		DO UPDATE SET quantity = ?,
			updated_at = CURRENT_TIMESTAMP
	`, productID, locationID, qty, qty).Error
}

// BalanceQuantity reads the current quantity; a missing row means zero.
func (r *Repository) BalanceQuantity(ctx context.Context, tx *gorm.DB, productID, locationID uuid.UUID) (int, error) {
	var balance models.StockBalance
	err := r.conn(tx).WithContext(ctx).
		First(&balance, "product_id = ? AND location_id = ?", productID, locationID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, err
	}
	return balance.Quantity, nil
}

// InsertTransaction appends one immutable ledger entry.
func (r *Repository) InsertTransaction(ctx context.Context, tx *gorm.DB, entry *models.StockTransaction) error {
	return r.conn(tx).WithContext(ctx).Create(entry).Error
}

// GetBalance returns the stored balance row, or nil when absent.
func (r *Repository) GetBalance(ctx context.Context, productID, locationID uuid.UUID) (*models.StockBalance, error) {
	var balance models.StockBalance
	err := r.db.WithContext(ctx).
		First(&balance, "product_id = ? AND location_id = ?", productID, locationID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &balance, nil
}

// ListBalances returns balances matching the filters ordered by location
// then product.
func (r *Repository) ListBalances(ctx context.Context, filters BalanceFilters) ([]models.StockBalance, error) {
	qb := r.db.WithContext(ctx).Model(&models.StockBalance{})
	if filters.ProductID != nil {
		qb = qb.Where("product_id = ?", *filters.ProductID)
	}
	if filters.LocationID != nil {
		qb = qb.Where("location_id = ?", *filters.LocationID)
	}
	var rows []models.StockBalance
	err := qb.Order("location_id ASC").Order("product_id ASC").Find(&rows).Error
	return rows, err
}

// ListTransactions returns one page of ledger entries, newest first, plus
// the total count for the filter set.
func (r *Repository) ListTransactions(ctx context.Context, query TransactionQuery) ([]models.StockTransaction, int64, error) {
	qb := r.db.WithContext(ctx).Model(&models.StockTransaction{})
	if query.ProductID != nil {
		qb = qb.Where("product_id = ?", *query.ProductID)
	}
	if query.LocationID != nil {
		qb = qb.Where("(from_location_id = ? OR to_location_id = ?)", *query.LocationID, *query.LocationID)
	}
	if query.Type != nil {
		qb = qb.Where("type = ?", *query.Type)
	}
	if query.From != nil {
		qb = qb.Where("transaction_date >= ?", *query.From)
	}
	if query.To != nil {
		qb = qb.Where("transaction_date <= ?", *query.To)
	}

	var total int64
	if err := qb.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params := query.Pagination.Normalize()
	var rows []models.StockTransaction
	err := qb.
		Order("transaction_date DESC").
		Order("created_at DESC").
		Offset(params.Offset).
		Limit(params.Limit).
		Find(&rows).Error
	return rows, total, err
}

// FindTransactionByID loads one ledger entry.
func (r *Repository) FindTransactionByID(ctx context.Context, id uuid.UUID) (*models.StockTransaction, error) {
	var entry models.StockTransaction
	if err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindTransactionByCode loads one ledger entry by its human-facing code.
func (r *Repository) FindTransactionByCode(ctx context.Context, code string) (*models.StockTransaction, error) {
	var entry models.StockTransaction
	if err := r.db.WithContext(ctx).First(&entry, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// PageFor builds the page descriptor for a transaction listing.
func PageFor(query TransactionQuery, total int64) pagination.Page {
	params := query.Pagination.Normalize()
	return pagination.Page{
		Limit:  params.Limit,
		Offset: params.Offset,
		Total:  total,
	}
}
