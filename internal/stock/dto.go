package stock

import (
	"time"

	"github.com/google/uuid"

	"github.com/waretrack/waretrack-backend/pkg/db/models"
	"github.com/waretrack/waretrack-backend/pkg/enums"
	"github.com/waretrack/waretrack-backend/pkg/pagination"
)

// TransactionDTO is the transport shape for one ledger entry.
type TransactionDTO struct {
	ID              uuid.UUID             `json:"id"`
	Code            string                `json:"code"`
	Type            enums.TransactionType `json:"type"`
	ProductID       uuid.UUID             `json:"product_id"`
	FromLocationID  *uuid.UUID            `json:"from_location_id,omitempty"`
	ToLocationID    *uuid.UUID            `json:"to_location_id,omitempty"`
	Quantity        int                   `json:"quantity"`
	Direction       *enums.StockDirection `json:"direction,omitempty"`
	ReferenceNumber *string               `json:"reference_number,omitempty"`
	Notes           *string               `json:"notes,omitempty"`
	UserID          uuid.UUID             `json:"user_id"`
	TransactionDate time.Time             `json:"transaction_date"`
	CreatedAt       time.Time             `json:"created_at"`
}

// BalanceDTO is the transport shape for one (product, location) balance.
type BalanceDTO struct {
	ProductID  uuid.UUID `json:"product_id"`
	LocationID uuid.UUID `json:"location_id"`
	Quantity   int       `json:"quantity"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// InboundInput receives stock into a location.
type InboundInput struct {
	ProductID       uuid.UUID
	ToLocationID    uuid.UUID
	Quantity        int
	ReferenceNumber *string
	Notes           *string
}

// OutboundInput dispatches stock out of a location.
type OutboundInput struct {
	ProductID       uuid.UUID
	FromLocationID  uuid.UUID
	Quantity        int
	ReferenceNumber *string
	Notes           *string
}

// MoveInput transfers stock between two locations.
type MoveInput struct {
	ProductID       uuid.UUID
	FromLocationID  uuid.UUID
	ToLocationID    uuid.UUID
	Quantity        int
	ReferenceNumber *string
	Notes           *string
}

// AdjustmentInput reconciles a balance to the physically counted quantity.
// NewQuantity replaces whatever is on hand; the ledger entry records the
// magnitude of the change and which way the balance moved.
type AdjustmentInput struct {
	ProductID       uuid.UUID
	LocationID      uuid.UUID
	NewQuantity     int
	ReferenceNumber *string
	Notes           *string
}

// OperationResult pairs the appended ledger entry with the post-commit
// balance of the affected location. A nil Transaction means the operation
// was a no-op (adjustment to the current quantity).
type OperationResult struct {
	Transaction *TransactionDTO `json:"transaction"`
	NewBalance  int             `json:"new_balance"`
}

// MoveResult pairs the ledger entry with both post-commit balances.
type MoveResult struct {
	Transaction *TransactionDTO `json:"transaction"`
	FromBalance int             `json:"from_balance"`
	ToBalance   int             `json:"to_balance"`
}

// TransactionQuery filters ledger listings. Results are newest first.
type TransactionQuery struct {
	ProductID  *uuid.UUID
	LocationID *uuid.UUID
	Type       *enums.TransactionType
	From       *time.Time
	To         *time.Time
	Pagination pagination.Params
}

// TransactionPage is one page of ledger entries.
type TransactionPage struct {
	Transactions []TransactionDTO `json:"transactions"`
	Page         pagination.Page  `json:"page"`
}

// BalanceFilters narrows balance listings.
type BalanceFilters struct {
	ProductID  *uuid.UUID
	LocationID *uuid.UUID
}

// InsufficientStockDetails is attached to INSUFFICIENT_STOCK errors so the
// caller can see how short the request was.
type InsufficientStockDetails struct {
	CurrentStock int `json:"current_stock"`
	Requested    int `json:"requested"`
}

func NewTransactionDTO(t *models.StockTransaction) *TransactionDTO {
	if t == nil {
		return nil
	}
	return &TransactionDTO{
		ID:              t.ID,
		Code:            t.Code,
		Type:            t.Type,
		ProductID:       t.ProductID,
		FromLocationID:  t.FromLocationID,
		ToLocationID:    t.ToLocationID,
		Quantity:        t.Quantity,
		Direction:       t.Direction,
		ReferenceNumber: t.ReferenceNumber,
		Notes:           t.Notes,
		UserID:          t.UserID,
		TransactionDate: t.TransactionDate,
		CreatedAt:       t.CreatedAt,
	}
}

func NewBalanceDTO(b *models.StockBalance) *BalanceDTO {
	if b == nil {
		return nil
	}
	return &BalanceDTO{
		ProductID:  b.ProductID,
		LocationID: b.LocationID,
		Quantity:   b.Quantity,
		UpdatedAt:  b.UpdatedAt,
	}
}
