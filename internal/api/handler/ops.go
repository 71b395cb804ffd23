// Package handler provides HTTP handlers for the soundtrail API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/soundtrail/soundtrail/internal/api/models"
	"github.com/soundtrail/soundtrail/internal/api/response"
)

// ReadinessChecker reports whether a dependency is reachable.
type ReadinessChecker func(ctx context.Context) error

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	checks    map[string]ReadinessChecker
}

// NewOpsHandler creates a new OpsHandler. Checks run on every readiness
// probe; nil is fine when the process has no external dependencies.
func NewOpsHandler(version, buildTime string, checks map[string]ReadinessChecker) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		checks:    checks,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	details := make(map[string]interface{}, len(h.checks))
	status := models.HealthStatusOK
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			details[name] = err.Error()
			status = models.HealthStatusDegraded
		} else {
			details[name] = "ok"
		}
	}

	health := models.Health{
		Status:  status,
		Time:    models.Timestamp(time.Now()),
		Details: details,
	}

	code := http.StatusOK
	if status != models.HealthStatusOK {
		code = http.StatusServiceUnavailable
	}
	response.JSON(w, r, code, health)
}
