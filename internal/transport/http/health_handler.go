package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"pricecube/internal/services"
)

// HealthHandler serves GET /api/health.
type HealthHandler struct {
	checker HealthChecker
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(checker HealthChecker, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		checker: checker,
		logger:  logger.With(slog.String("handler", "health")),
	}
}

// ServeHTTP reports 200 when healthy and 503 when degraded.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := h.checker.Check(r.Context())
	if resp.Status != services.StatusHealthy {
		h.logger.WarnContext(r.Context(), "health check degraded", slog.String("storage", resp.Storage))
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, resp)
}
