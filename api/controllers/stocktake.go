package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/waretrack/waretrack-backend/api/responses"
	"github.com/waretrack/waretrack-backend/api/validators"
	"github.com/waretrack/waretrack-backend/internal/stocktake"
	"github.com/waretrack/waretrack-backend/pkg/enums"
	pkgerrors "github.com/waretrack/waretrack-backend/pkg/errors"
	"github.com/waretrack/waretrack-backend/pkg/logger"
)

type openSessionRequest struct {
	LocationID uuid.UUID `json:"location_id" validate:"required"`
	Notes      *string   `json:"notes,omitempty"`
}

type recordCountRequest struct {
	CountedQuantity int     `json:"counted_quantity" validate:"gte=0"`
	Notes           *string `json:"notes,omitempty"`
}

type completeSessionRequest struct {
	ApplyAdjustments bool    `json:"apply_adjustments"`
	Notes            *string `json:"notes,omitempty"`
}

type cancelSessionRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func StocktakeOpen(mgr stocktake.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorOrError(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body openSessionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		session, err := mgr.Open(r.Context(), actor, stocktake.OpenSessionInput{
			LocationID: body.LocationID,
			Notes:      body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}

func StocktakeRecordCount(mgr stocktake.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorOrError(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sessionID, err := validators.URLParamUUID(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.URLParamUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body recordCountRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := mgr.RecordCount(r.Context(), actor, stocktake.RecordCountInput{
			SessionID:       sessionID,
			ProductID:       productID,
			CountedQuantity: body.CountedQuantity,
			Notes:           body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func StocktakeComplete(mgr stocktake.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorOrError(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sessionID, err := validators.URLParamUUID(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body completeSessionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		session, err := mgr.Complete(r.Context(), actor, stocktake.CompleteSessionInput{
			SessionID:        sessionID,
			ApplyAdjustments: body.ApplyAdjustments,
			Notes:            body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

func StocktakeCancel(mgr stocktake.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorOrError(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sessionID, err := validators.URLParamUUID(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body cancelSessionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		session, err := mgr.Cancel(r.Context(), actor, stocktake.CancelSessionInput{
			SessionID: sessionID,
			Reason:    body.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

func StocktakeGet(mgr stocktake.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := validators.URLParamUUID(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		session, err := mgr.Get(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

func StocktakeList(mgr stocktake.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters := stocktake.SessionListFilters{}
		locationID, err := validators.ParseQueryUUID(r, "location_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters.LocationID = locationID
		if raw := validators.SanitizeString(r.URL.Query().Get("status"), 32); raw != "" {
			status := enums.StocktakeStatus(raw)
			if !status.IsValid() {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "unknown session status").WithDetails(map[string]any{"field": "status"}))
				return
			}
			filters.Status = &status
		}
		sessions, err := mgr.List(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sessions)
	}
}
