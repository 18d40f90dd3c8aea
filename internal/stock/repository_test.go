package stock

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/waretrack/waretrack-backend/pkg/db/models"
	"github.com/waretrack/waretrack-backend/pkg/enums"
	"github.com/waretrack/waretrack-backend/pkg/pagination"
)

func setupStockTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	balances := `
CREATE TABLE IF NOT EXISTS stock_balances (
  product_id TEXT NOT NULL,
  location_id TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
  updated_at DATETIME,
  PRIMARY KEY (product_id, location_id)
);`
	transactions := `
CREATE TABLE IF NOT EXISTS stock_transactions (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  type TEXT NOT NULL,
  product_id TEXT NOT NULL,
  from_location_id TEXT,
  to_location_id TEXT,
  quantity INTEGER NOT NULL,
  direction TEXT,
  reference_number TEXT,
  notes TEXT,
  user_id TEXT NOT NULL,
  transaction_date DATETIME NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(balances).Error)
	require.NoError(t, db.Exec(transactions).Error)
	return db
}

func insertLedgerEntry(t *testing.T, repo *Repository, productID, locationID uuid.UUID, txType enums.TransactionType, qty int, at time.Time) *models.StockTransaction {
	t.Helper()

	entry := &models.StockTransaction{
		ID:              uuid.New(),
		Code:            "TXN-" + uuid.NewString()[:8],
		Type:            txType,
		ProductID:       productID,
		Quantity:        qty,
		UserID:          uuid.New(),
		TransactionDate: at,
		CreatedAt:       at,
	}
	switch txType {
	case enums.TransactionTypeInbound:
		entry.ToLocationID = &locationID
	case enums.TransactionTypeOutbound:
		entry.FromLocationID = &locationID
	}
	require.NoError(t, repo.InsertTransaction(context.Background(), nil, entry))
	return entry
}

func TestRepositoryCreditBalance_upserts(t *testing.T) {
	db := setupStockTestDB(t)
	repo := NewRepository(db)

	productID := uuid.New()
	locationID := uuid.New()

	require.NoError(t, repo.CreditBalance(context.Background(), nil, productID, locationID, 10))
	require.NoError(t, repo.CreditBalance(context.Background(), nil, productID, locationID, 5))

	qty, err := repo.BalanceQuantity(context.Background(), nil, productID, locationID)
	require.NoError(t, err)
	assert.Equal(t, 15, qty)
}

func TestRepositoryDebitBalance_guardsAgainstOverdraw(t *testing.T) {
	db := setupStockTestDB(t)
	repo := NewRepository(db)

	productID := uuid.New()
	locationID := uuid.New()
	require.NoError(t, repo.CreditBalance(context.Background(), nil, productID, locationID, 8))

	ok, err := repo.DebitBalance(context.Background(), nil, productID, locationID, 5)
	require.NoError(t, err)
	assert.True(t, ok)

	// Only 3 left; the conditional update must refuse without changing the row.
	ok, err = repo.DebitBalance(context.Background(), nil, productID, locationID, 4)
	require.NoError(t, err)
	assert.False(t, ok)

	qty, err := repo.BalanceQuantity(context.Background(), nil, productID, locationID)
	require.NoError(t, err)
	assert.Equal(t, 3, qty)
}

func TestRepositoryDebitBalance_missingRowIsZero(t *testing.T) {
	db := setupStockTestDB(t)
	repo := NewRepository(db)

	ok, err := repo.DebitBalance(context.Background(), nil, uuid.New(), uuid.New(), 1)
	require.NoError(t, err)
	assert.False(t, ok)

	qty, err := repo.BalanceQuantity(context.Background(), nil, uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 0, qty)
}

func TestRepositoryListTransactions_newestFirstAndPaged(t *testing.T) {
	db := setupStockTestDB(t)
	repo := NewRepository(db)

	productID := uuid.New()
	locationID := uuid.New()
	now := time.Now().UTC()

	oldest := insertLedgerEntry(t, repo, productID, locationID, enums.TransactionTypeInbound, 10, now.Add(-2*time.Hour))
	middle := insertLedgerEntry(t, repo, productID, locationID, enums.TransactionTypeOutbound, 4, now.Add(-time.Hour))
	newest := insertLedgerEntry(t, repo, productID, locationID, enums.TransactionTypeInbound, 6, now)

	rows, total, err := repo.ListTransactions(context.Background(), TransactionQuery{
		ProductID:  &productID,
		Pagination: pagination.Params{Limit: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, rows, 2)
	assert.Equal(t, newest.ID, rows[0].ID)
	assert.Equal(t, middle.ID, rows[1].ID)

	rows, total, err = repo.ListTransactions(context.Background(), TransactionQuery{
		ProductID:  &productID,
		Pagination: pagination.Params{Limit: 2, Offset: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, rows, 1)
	assert.Equal(t, oldest.ID, rows[0].ID)
}

func TestRepositoryListTransactions_filters(t *testing.T) {
	db := setupStockTestDB(t)
	repo := NewRepository(db)

	productID := uuid.New()
	warehouseID := uuid.New()
	otherID := uuid.New()
	now := time.Now().UTC()

	insertLedgerEntry(t, repo, productID, warehouseID, enums.TransactionTypeInbound, 10, now.Add(-time.Hour))
	outbound := insertLedgerEntry(t, repo, productID, warehouseID, enums.TransactionTypeOutbound, 2, now)
	insertLedgerEntry(t, repo, uuid.New(), otherID, enums.TransactionTypeInbound, 7, now)

	txType := enums.TransactionTypeOutbound
	rows, total, err := repo.ListTransactions(context.Background(), TransactionQuery{
		LocationID: &warehouseID,
		Type:       &txType,
		Pagination: pagination.Params{Limit: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, outbound.ID, rows[0].ID)

	from := now.Add(-30 * time.Minute)
	rows, total, err = repo.ListTransactions(context.Background(), TransactionQuery{
		ProductID:  &productID,
		From:       &from,
		Pagination: pagination.Params{Limit: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, outbound.ID, rows[0].ID)
}

func TestRepositoryFindTransactionByCode(t *testing.T) {
	db := setupStockTestDB(t)
	repo := NewRepository(db)

	entry := insertLedgerEntry(t, repo, uuid.New(), uuid.New(), enums.TransactionTypeInbound, 3, time.Now().UTC())

	found, err := repo.FindTransactionByCode(context.Background(), entry.Code)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, found.ID)

	_, err = repo.FindTransactionByCode(context.Background(), "TXN-missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
