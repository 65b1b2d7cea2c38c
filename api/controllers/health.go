package controllers

import (
	"context"
	"net/http"

	"github.com/schoolpay/backend/api/responses"
	"github.com/schoolpay/backend/pkg/logger"
)

// Pinger is a datasource health probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController serves liveness and readiness probes.
type HealthController struct {
	probes map[string]Pinger
	logg   *logger.Logger
}

// NewHealthController builds the controller. Probes may be nil; they are
// skipped in readiness checks.
func NewHealthController(logg *logger.Logger, probes map[string]Pinger) *HealthController {
	return &HealthController{probes: probes, logg: logg}
}

// Live reports process liveness.
func (c *HealthController) Live(w http.ResponseWriter, r *http.Request) {
	responses.WriteSuccess(w, map[string]string{"status": "ok"})
}

// Ready pings every registered datasource and reports per-probe status.
func (c *HealthController) Ready(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := http.StatusOK
	results := make(map[string]string, len(c.probes))
	for name, probe := range c.probes {
		if probe == nil {
			continue
		}
		if err := probe.Ping(ctx); err != nil {
			results[name] = "unavailable"
			status = http.StatusServiceUnavailable
			if c.logg != nil {
				c.logg.Error(ctx, "readiness probe failed: "+name, err)
			}
			continue
		}
		results[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	responses.WriteSuccessStatus(w, status, map[string]any{
		"status": overall,
		"probes": results,
	})
}
