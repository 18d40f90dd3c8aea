package stocktake

import (
	"time"

	"github.com/google/uuid"

	"github.com/waretrack/waretrack-backend/pkg/db/models"
	"github.com/waretrack/waretrack-backend/pkg/enums"
)

// SessionDTO is the transport shape for one stocktake session.
type SessionDTO struct {
	ID          uuid.UUID             `json:"id"`
	LocationID  uuid.UUID             `json:"location_id"`
	Status      enums.StocktakeStatus `json:"status"`
	StartedBy   uuid.UUID             `json:"started_by"`
	CompletedBy *uuid.UUID            `json:"completed_by,omitempty"`
	StartDate   time.Time             `json:"start_date"`
	EndDate     *time.Time            `json:"end_date,omitempty"`
	Notes       *string               `json:"notes,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// DetailDTO is one count line inside a session.
type DetailDTO struct {
	ID               uuid.UUID  `json:"id"`
	SessionID        uuid.UUID  `json:"session_id"`
	ProductID        uuid.UUID  `json:"product_id"`
	ExpectedQuantity int        `json:"expected_quantity"`
	CountedQuantity  *int       `json:"counted_quantity,omitempty"`
	Variance         *int       `json:"variance,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
	CountedBy        *uuid.UUID `json:"counted_by,omitempty"`
	CountedAt        *time.Time `json:"counted_at,omitempty"`
}

// SessionWithDetails pairs a session with its count lines.
type SessionWithDetails struct {
	Session SessionDTO  `json:"session"`
	Details []DetailDTO `json:"details"`
}

// OpenSessionInput starts a stocktake for a location.
type OpenSessionInput struct {
	LocationID uuid.UUID
	Notes      *string
}

// RecordCountInput records the physical count for one product.
type RecordCountInput struct {
	SessionID       uuid.UUID
	ProductID       uuid.UUID
	CountedQuantity int
	Notes           *string
}

// CompleteSessionInput closes a session, optionally reconciling balances to
// the counted quantities.
type CompleteSessionInput struct {
	SessionID        uuid.UUID
	ApplyAdjustments bool
	Notes            *string
}

// CancelSessionInput abandons a session without touching balances.
type CancelSessionInput struct {
	SessionID uuid.UUID
	Reason    string
}

// IncompleteCountDetails is attached to INCOMPLETE_COUNT errors.
type IncompleteCountDetails struct {
	UncountedCount    int         `json:"uncounted_count"`
	UncountedProducts []uuid.UUID `json:"uncounted_products"`
}

// SessionListFilters narrows session listings.
type SessionListFilters struct {
	LocationID *uuid.UUID
	Status     *enums.StocktakeStatus
}

func NewSessionDTO(s *models.StocktakeSession) *SessionDTO {
	if s == nil {
		return nil
	}
	return &SessionDTO{
		ID:          s.ID,
		LocationID:  s.LocationID,
		Status:      s.Status,
		StartedBy:   s.StartedBy,
		CompletedBy: s.CompletedBy,
		StartDate:   s.StartDate,
		EndDate:     s.EndDate,
		Notes:       s.Notes,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func NewDetailDTO(d *models.StocktakeDetail) *DetailDTO {
	if d == nil {
		return nil
	}
	return &DetailDTO{
		ID:               d.ID,
		SessionID:        d.SessionID,
		ProductID:        d.ProductID,
		ExpectedQuantity: d.ExpectedQuantity,
		CountedQuantity:  d.CountedQuantity,
		Variance:         d.Variance,
		Notes:            d.Notes,
		CountedBy:        d.CountedBy,
		CountedAt:        d.CountedAt,
	}
}
