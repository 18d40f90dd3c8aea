package controllers

import (
	"net/http"

	"github.com/waretrack/waretrack-backend/api/responses"
	"github.com/waretrack/waretrack-backend/api/validators"
	"github.com/waretrack/waretrack-backend/internal/reports"
	"github.com/waretrack/waretrack-backend/pkg/enums"
	pkgerrors "github.com/waretrack/waretrack-backend/pkg/errors"
	"github.com/waretrack/waretrack-backend/pkg/logger"
)

func ReportStockLevels(svc *reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters := reports.StockLevelFilters{}
		locationID, err := validators.ParseQueryUUID(r, "location_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters.LocationID = locationID
		if raw := validators.SanitizeString(r.URL.Query().Get("status"), 32); raw != "" {
			status := enums.StockStatus(raw)
			switch status {
			case enums.StockStatusOutOfStock, enums.StockStatusLow, enums.StockStatusNormal, enums.StockStatusOverstock:
				filters.Status = &status
			default:
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "unknown stock status").WithDetails(map[string]any{"field": "status"}))
				return
			}
		}
		rows, err := svc.StockLevels(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func ReportTransactionHistory(svc *reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query, err := parseTransactionQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.TransactionHistory(r.Context(), *query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func ReportStocktakeVariance(svc *reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := validators.URLParamUUID(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		report, err := svc.StocktakeVariance(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

func ReportDashboard(svc *reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := svc.Dashboard(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

func ReportUserActivity(svc *reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters := reports.UserActivityFilters{}
		userID, err := validators.ParseQueryUUID(r, "user_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters.UserID = userID
		if raw := validators.SanitizeString(r.URL.Query().Get("action"), 64); raw != "" {
			filters.Action = &raw
		}
		from, err := validators.ParseQueryTime(r, "start_date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters.From = from
		to, err := validators.ParseQueryTime(r, "end_date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters.To = to

		report, err := svc.UserActivity(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
