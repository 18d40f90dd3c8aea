package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/waretrack/waretrack-backend/api/controllers"
	"github.com/waretrack/waretrack-backend/api/middleware"
	"github.com/waretrack/waretrack-backend/internal/auth"
	"github.com/waretrack/waretrack-backend/internal/catalog"
	"github.com/waretrack/waretrack-backend/internal/reports"
	"github.com/waretrack/waretrack-backend/internal/stock"
	"github.com/waretrack/waretrack-backend/internal/stocktake"
	"github.com/waretrack/waretrack-backend/pkg/auth/session"
	"github.com/waretrack/waretrack-backend/pkg/config"
	"github.com/waretrack/waretrack-backend/pkg/db"
	"github.com/waretrack/waretrack-backend/pkg/enums"
	"github.com/waretrack/waretrack-backend/pkg/logger"
	"github.com/waretrack/waretrack-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Sessions session.AccessSessionChecker
	Registry *prometheus.Registry

	Auth      auth.Service
	Catalog   catalog.Service
	Engine    stock.Engine
	Query     *stock.QueryService
	Stocktake stocktake.Manager
	Reports   *reports.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
		middleware.ClientInfo,
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
	)
	loginLimiter := func(next http.Handler) http.Handler { return next }
	if deps.Redis != nil {
		loginLimiter = middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)
	}

	var cachePinger db.Pinger
	if deps.Redis != nil {
		cachePinger = deps.Redis
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, cachePinger))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(loginLimiter).Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(deps.Auth, cfg.JWT, logg))
		r.With(middleware.Auth(cfg.JWT, deps.Sessions, logg)).
			Get("/me", controllers.AuthMe(deps.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(deps.Catalog, logg))
			r.Get("/{productId}", controllers.ProductGet(deps.Catalog, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireCatalogManager(logg))
				r.Post("/", controllers.ProductCreate(deps.Catalog, logg))
				r.Patch("/{productId}", controllers.ProductUpdate(deps.Catalog, logg))
				r.Delete("/{productId}", controllers.ProductDeactivate(deps.Catalog, logg))
			})
		})

		r.Route("/locations", func(r chi.Router) {
			r.Get("/", controllers.LocationList(deps.Catalog, logg))
			r.Get("/{locationId}", controllers.LocationGet(deps.Catalog, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireCatalogManager(logg))
				r.Post("/", controllers.LocationCreate(deps.Catalog, logg))
				r.Patch("/{locationId}", controllers.LocationUpdate(deps.Catalog, logg))
				r.Delete("/{locationId}", controllers.LocationDeactivate(deps.Catalog, logg))
			})
		})

		r.Route("/stock", func(r chi.Router) {
			r.Post("/inbound", controllers.StockInbound(deps.Engine, logg))
			r.Post("/outbound", controllers.StockOutbound(deps.Engine, logg))
			r.Post("/move", controllers.StockMove(deps.Engine, logg))
			r.With(middleware.RequireRoles(logg, enums.UserRoleAdmin, enums.UserRoleSupervisor)).
				Post("/adjustments", controllers.StockAdjustment(deps.Engine, logg))

			r.Get("/balances", controllers.StockBalanceList(deps.Query, logg))
			r.Get("/balances/{productId}/{locationId}", controllers.StockBalanceGet(deps.Query, logg))
			r.Get("/transactions", controllers.StockTransactionList(deps.Query, logg))
			r.Get("/transactions/{transactionId}", controllers.StockTransactionGet(deps.Query, logg))
		})

		r.Route("/stocktake/sessions", func(r chi.Router) {
			// Counting is open to any authenticated user; managing the
			// session lifecycle is not.
			r.Put("/{sessionId}/products/{productId}", controllers.StocktakeRecordCount(deps.Stocktake, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRoles(logg, enums.UserRoleAdmin, enums.UserRoleSupervisor))
				r.Get("/", controllers.StocktakeList(deps.Stocktake, logg))
				r.Post("/", controllers.StocktakeOpen(deps.Stocktake, logg))
				r.Get("/{sessionId}", controllers.StocktakeGet(deps.Stocktake, logg))
				r.Post("/{sessionId}/complete", controllers.StocktakeComplete(deps.Stocktake, logg))
				r.Post("/{sessionId}/cancel", controllers.StocktakeCancel(deps.Stocktake, logg))
				r.Get("/{sessionId}/variances", controllers.ReportStocktakeVariance(deps.Reports, logg))
			})
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/dashboard", controllers.ReportDashboard(deps.Reports, logg))
			r.Get("/stock-levels", controllers.ReportStockLevels(deps.Reports, logg))
			r.Get("/transactions", controllers.ReportTransactionHistory(deps.Reports, logg))
			r.Get("/stocktake/{sessionId}", controllers.ReportStocktakeVariance(deps.Reports, logg))
			r.With(middleware.RequireRoles(logg, enums.UserRoleAdmin, enums.UserRoleSupervisor)).
				Get("/user-activity", controllers.ReportUserActivity(deps.Reports, logg))
		})
	})

	return r
}
