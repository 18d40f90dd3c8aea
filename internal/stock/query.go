package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/waretrack/waretrack-backend/pkg/db/models"
	pkgerrors "github.com/waretrack/waretrack-backend/pkg/errors"
)

// QueryService serves the ledger and balance read paths.
type QueryService struct {
	repo queryStore
}

type queryStore interface {
	GetBalance(ctx context.Context, productID, locationID uuid.UUID) (*models.StockBalance, error)
	ListBalances(ctx context.Context, filters BalanceFilters) ([]models.StockBalance, error)
	ListTransactions(ctx context.Context, query TransactionQuery) ([]models.StockTransaction, int64, error)
	FindTransactionByID(ctx context.Context, id uuid.UUID) (*models.StockTransaction, error)
}

// NewQueryService constructs the read-side service.
func NewQueryService(repo queryStore) (*QueryService, error) {
	if repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	return &QueryService{repo: repo}, nil
}

// GetBalance returns the balance for one (product, location) pair. A missing
// row reads as quantity zero.
func (s *QueryService) GetBalance(ctx context.Context, productID, locationID uuid.UUID) (*BalanceDTO, error) {
	balance, err := s.repo.GetBalance(ctx, productID, locationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load balance")
	}
	if balance == nil {
		return &BalanceDTO{ProductID: productID, LocationID: locationID, Quantity: 0}, nil
	}
	return NewBalanceDTO(balance), nil
}

// ListBalances returns the stored balances matching the filters.
func (s *QueryService) ListBalances(ctx context.Context, filters BalanceFilters) ([]BalanceDTO, error) {
	rows, err := s.repo.ListBalances(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list balances")
	}
	dtos := make([]BalanceDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *NewBalanceDTO(&rows[i]))
	}
	return dtos, nil
}

// ListTransactions returns one page of ledger entries, newest first.
func (s *QueryService) ListTransactions(ctx context.Context, query TransactionQuery) (*TransactionPage, error) {
	rows, total, err := s.repo.ListTransactions(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}
	dtos := make([]TransactionDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *NewTransactionDTO(&rows[i]))
	}
	return &TransactionPage{
		Transactions: dtos,
		Page:         PageFor(query, total),
	}, nil
}

// GetTransaction loads one ledger entry by ID.
func (s *QueryService) GetTransaction(ctx context.Context, id uuid.UUID) (*TransactionDTO, error) {
	entry, err := s.repo.FindTransactionByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
	}
	return NewTransactionDTO(entry), nil
}
