package stocktake

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/waretrack/waretrack-backend/pkg/db/models"
	"github.com/waretrack/waretrack-backend/pkg/enums"
)

// Repository persists stocktake sessions and their count lines. Methods take
// an optional transaction handle so opening a session can write the session
// row and its snapshot together.
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

// CreateSession inserts a new session row.
func (r *Repository) CreateSession(ctx context.Context, tx *gorm.DB, session *models.StocktakeSession) error {
	return r.conn(tx).WithContext(ctx).Create(session).Error
}

// CreateDetails inserts the snapshot rows for a session.
func (r *Repository) CreateDetails(ctx context.Context, tx *gorm.DB, details []models.StocktakeDetail) error {
	if len(details) == 0 {
		return nil
	}
	return r.conn(tx).WithContext(ctx).Create(&details).Error
}

// UpdateSession saves session mutations.
func (r *Repository) UpdateSession(ctx context.Context, tx *gorm.DB, session *models.StocktakeSession) error {
	return r.conn(tx).WithContext(ctx).Save(session).Error
}

// UpdateDetail saves one count line.
func (r *Repository) UpdateDetail(ctx context.Context, detail *models.StocktakeDetail) error {
	return r.db.WithContext(ctx).Save(detail).Error
}

// FindSessionByID loads one session.
func (r *Repository) FindSessionByID(ctx context.Context, id uuid.UUID) (*models.StocktakeSession, error) {
	var session models.StocktakeSession
	if err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// FindActiveByLocation returns the active session for a location, or nil.
func (r *Repository) FindActiveByLocation(ctx context.Context, locationID uuid.UUID) (*models.StocktakeSession, error) {
	var session models.StocktakeSession
	err := r.db.WithContext(ctx).
		First(&session, "location_id = ? AND status = ?", locationID, enums.StocktakeStatusActive).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// ListSessions returns sessions matching the filters, newest first.
func (r *Repository) ListSessions(ctx context.Context, filters SessionListFilters) ([]models.StocktakeSession, error) {
	qb := r.db.WithContext(ctx).Model(&models.StocktakeSession{})
	if filters.LocationID != nil {
		qb = qb.Where("location_id = ?", *filters.LocationID)
	}
	if filters.Status != nil {
		qb = qb.Where("status = ?", *filters.Status)
	}
	var rows []models.StocktakeSession
	err := qb.Order("start_date DESC").Find(&rows).Error
	return rows, err
}

// ListDetails returns the count lines for a session.
func (r *Repository) ListDetails(ctx context.Context, sessionID uuid.UUID) ([]models.StocktakeDetail, error) {
	var rows []models.StocktakeDetail
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// FindDetail loads the count line for one (session, product) pair.
func (r *Repository) FindDetail(ctx context.Context, sessionID, productID uuid.UUID) (*models.StocktakeDetail, error) {
	var detail models.StocktakeDetail
	err := r.db.WithContext(ctx).
		First(&detail, "session_id = ? AND product_id = ?", sessionID, productID).Error
	if err != nil {
		return nil, err
	}
	return &detail, nil
}
