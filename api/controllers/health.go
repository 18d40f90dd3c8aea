package controllers

import (
	"net/http"

	"github.com/waretrack/waretrack-backend/api/responses"
	"github.com/waretrack/waretrack-backend/pkg/config"
	"github.com/waretrack/waretrack-backend/pkg/db"
	"github.com/waretrack/waretrack-backend/pkg/logger"
)

// HealthLive answers as soon as the process serves traffic.
func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Waretrack-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the backing stores before reporting ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, cacheP db.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Waretrack-Env", cfg.App.Env)

		checks := map[string]string{}
		healthy := true

		if dbP != nil {
			checks["database"] = "ok"
			if err := dbP.Ping(r.Context()); err != nil {
				checks["database"] = "unavailable"
				healthy = false
				if logg != nil {
					logg.Error(r.Context(), "health.database", err)
				}
			}
		}
		if cacheP != nil {
			checks["redis"] = "ok"
			if err := cacheP.Ping(r.Context()); err != nil {
				checks["redis"] = "unavailable"
				healthy = false
				if logg != nil {
					logg.Error(r.Context(), "health.redis", err)
				}
			}
		}

		status := http.StatusOK
		checks["status"] = "ready"
		if !healthy {
			status = http.StatusServiceUnavailable
			checks["status"] = "degraded"
		}
		responses.WriteSuccessStatus(w, status, checks)
	}
}
