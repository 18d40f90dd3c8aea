package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/waretrack/waretrack-backend/api/middleware"
	"github.com/waretrack/waretrack-backend/api/responses"
	"github.com/waretrack/waretrack-backend/api/validators"
	"github.com/waretrack/waretrack-backend/internal/stock"
	"github.com/waretrack/waretrack-backend/pkg/enums"
	pkgerrors "github.com/waretrack/waretrack-backend/pkg/errors"
	"github.com/waretrack/waretrack-backend/pkg/logger"
	"github.com/waretrack/waretrack-backend/pkg/pagination"
)

type inboundRequest struct {
	ProductID       uuid.UUID `json:"product_id" validate:"required"`
	ToLocationID    uuid.UUID `json:"to_location_id" validate:"required"`
	Quantity        int       `json:"quantity" validate:"required,gt=0"`
	ReferenceNumber *string   `json:"reference_number,omitempty" validate:"omitempty,max=128"`
	Notes           *string   `json:"notes,omitempty"`
}

type outboundRequest struct {
	ProductID       uuid.UUID `json:"product_id" validate:"required"`
	FromLocationID  uuid.UUID `json:"from_location_id" validate:"required"`
	Quantity        int       `json:"quantity" validate:"required,gt=0"`
	ReferenceNumber *string   `json:"reference_number,omitempty" validate:"omitempty,max=128"`
	Notes           *string   `json:"notes,omitempty"`
}

type moveRequest struct {
	ProductID       uuid.UUID `json:"product_id" validate:"required"`
	FromLocationID  uuid.UUID `json:"from_location_id" validate:"required"`
	ToLocationID    uuid.UUID `json:"to_location_id" validate:"required"`
	Quantity        int       `json:"quantity" validate:"required,gt=0"`
	ReferenceNumber *string   `json:"reference_number,omitempty" validate:"omitempty,max=128"`
	Notes           *string   `json:"notes,omitempty"`
}

type adjustmentRequest struct {
	ProductID       uuid.UUID `json:"product_id" validate:"required"`
	LocationID      uuid.UUID `json:"location_id" validate:"required"`
	NewQuantity     int       `json:"new_quantity" validate:"gte=0"`
	ReferenceNumber *string   `json:"reference_number,omitempty" validate:"omitempty,max=128"`
	Notes           *string   `json:"notes,omitempty"`
}

func actorOrError(r *http.Request) (uuid.UUID, error) {
	actor, ok := middleware.ActorID(r.Context())
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing actor identity")
	}
	return actor, nil
}

func StockInbound(engine stock.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorOrError(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body inboundRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := engine.Inbound(r.Context(), actor, stock.InboundInput{
			ProductID:       body.ProductID,
			ToLocationID:    body.ToLocationID,
			Quantity:        body.Quantity,
			ReferenceNumber: body.ReferenceNumber,
			Notes:           body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func StockOutbound(engine stock.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorOrError(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body outboundRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := engine.Outbound(r.Context(), actor, stock.OutboundInput{
			ProductID:       body.ProductID,
			FromLocationID:  body.FromLocationID,
			Quantity:        body.Quantity,
			ReferenceNumber: body.ReferenceNumber,
			Notes:           body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func StockMove(engine stock.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorOrError(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body moveRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := engine.Move(r.Context(), actor, stock.MoveInput{
			ProductID:       body.ProductID,
			FromLocationID:  body.FromLocationID,
			ToLocationID:    body.ToLocationID,
			Quantity:        body.Quantity,
			ReferenceNumber: body.ReferenceNumber,
			Notes:           body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func StockAdjustment(engine stock.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorOrError(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body adjustmentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := engine.StocktakeAdjustment(r.Context(), actor, stock.AdjustmentInput{
			ProductID:       body.ProductID,
			LocationID:      body.LocationID,
			NewQuantity:     body.NewQuantity,
			ReferenceNumber: body.ReferenceNumber,
			Notes:           body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func StockBalanceGet(svc *stock.QueryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.URLParamUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		locationID, err := validators.URLParamUUID(r, "locationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		balance, err := svc.GetBalance(r.Context(), productID, locationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, balance)
	}
}

func StockBalanceList(svc *stock.QueryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters := stock.BalanceFilters{}
		productID, err := validators.ParseQueryUUID(r, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters.ProductID = productID
		locationID, err := validators.ParseQueryUUID(r, "location_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters.LocationID = locationID

		balances, err := svc.ListBalances(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, balances)
	}
}

func StockTransactionList(svc *stock.QueryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query, err := parseTransactionQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListTransactions(r.Context(), *query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func StockTransactionGet(svc *stock.QueryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		txnID, err := validators.URLParamUUID(r, "transactionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		txn, err := svc.GetTransaction(r.Context(), txnID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, txn)
	}
}

func parseTransactionQuery(r *http.Request) (*stock.TransactionQuery, error) {
	query := stock.TransactionQuery{}

	productID, err := validators.ParseQueryUUID(r, "product_id")
	if err != nil {
		return nil, err
	}
	query.ProductID = productID

	locationID, err := validators.ParseQueryUUID(r, "location_id")
	if err != nil {
		return nil, err
	}
	query.LocationID = locationID

	if raw := validators.SanitizeString(r.URL.Query().Get("type"), 64); raw != "" {
		txnType := enums.TransactionType(raw)
		if !txnType.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown transaction type").WithDetails(map[string]any{"field": "type"})
		}
		query.Type = &txnType
	}

	from, err := validators.ParseQueryTime(r, "from")
	if err != nil {
		return nil, err
	}
	query.From = from

	to, err := validators.ParseQueryTime(r, "to")
	if err != nil {
		return nil, err
	}
	query.To = to

	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return nil, err
	}
	offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1<<30)
	if err != nil {
		return nil, err
	}
	query.Pagination = pagination.Params{Limit: limit, Offset: offset}

	return &query, nil
}
