package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/urbancart/urbancart-backend/api/responses"
	"github.com/urbancart/urbancart-backend/pkg/config"
	"github.com/urbancart/urbancart-backend/pkg/logger"
)

const healthTimeout = 2 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthStatus is the unwrapped body of GET /health/.
type HealthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Service  string `json:"service"`
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteRaw(w, http.StatusOK, map[string]string{"status": "live", "service": cfg.App.ServiceName})
	}
}

// Health reports database reachability with 200 or 503.
func Health(cfg *config.Config, logg *logger.Logger, database pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := HealthStatus{Status: "ok", Database: "ok", Service: cfg.App.ServiceName}
		status := http.StatusOK

		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if database == nil {
			body.Status, body.Database = "degraded", "error"
			status = http.StatusServiceUnavailable
		} else if err := database.Ping(ctx); err != nil {
			if logg != nil {
				logg.Error(r.Context(), "health.database_unreachable", err)
			}
			body.Status, body.Database = "degraded", "error"
			status = http.StatusServiceUnavailable
		}

		responses.WriteRaw(w, status, body)
	}
}
