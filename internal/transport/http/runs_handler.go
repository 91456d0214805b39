package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel/attribute"

	apierrors "pricecube/internal/errors"
	"pricecube/internal/infrastructure"
	"pricecube/internal/middleware"
	"pricecube/internal/services"
	api "pricecube/pkg/contracts/api/v1"
)

// RunsHandler serves pricing runs and the views over them.
type RunsHandler struct {
	service      PricingService
	validator    *middleware.Validator
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewRunsHandler creates a new runs handler
func NewRunsHandler(service PricingService, validator *middleware.Validator, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *RunsHandler {
	if service == nil {
		panic("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if validator == nil {
		validator = middleware.NewValidator(logger)
	}
	if errorHandler == nil {
		errorHandler = apierrors.NewErrorHandler(logger, false)
	}
	return &RunsHandler{
		service:      service,
		validator:    validator,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "runs")),
	}
}

// Routes returns the /api/runs router.
func (h *RunsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreateRun)
	r.Get("/", h.ListRuns)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.GetRun)
		r.Get("/rows", h.Rows)
		r.Get("/recap", h.Recap)
		r.Get("/dashboard", h.Dashboard)
		r.Get("/skus/{sku}/modal", h.SkuModal)
	})
	return r
}

// CreateRun handles POST /api/runs
func (h *RunsHandler) CreateRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.CreateRunRequest
	if err := h.validator.Decode(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	infrastructure.SetSpanAttributes(ctx,
		attribute.String("run.source", req.Source),
		attribute.Int("run.observations", len(req.Observations)))

	info, err := h.service.CreateRun(ctx, req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "run created",
		slog.String("run_id", info.ID),
		slog.String("request_id", middleware.GetReqID(ctx)))
	w.Header().Set("Location", "/api/runs/"+info.ID)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, info)
}

// ListRuns handles GET /api/runs
func (h *RunsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.ListRuns(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, resp)
}

// GetRun handles GET /api/runs/{id}
func (h *RunsHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, info)
}

// Rows handles GET /api/runs/{id}/rows?offset=&limit=
func (h *RunsHandler) Rows(w http.ResponseWriter, r *http.Request) {
	offset, err := middleware.QueryInt(r, "offset", 0, 1<<31-1, 0)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	limit, err := middleware.QueryInt(r, "limit", 1, services.MaxPageSize, services.DefaultPageSize)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	resp, err := h.service.Rows(r.Context(), chi.URLParam(r, "id"), offset, limit)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, resp)
}

// SkuModal handles GET /api/runs/{id}/skus/{sku}/modal
func (h *RunsHandler) SkuModal(w http.ResponseWriter, r *http.Request) {
	modal, err := h.service.SkuModal(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "sku"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, modal)
}

// Recap handles GET /api/runs/{id}/recap
func (h *RunsHandler) Recap(w http.ResponseWriter, r *http.Request) {
	recap, err := h.service.Recap(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, recap)
}

// Dashboard handles GET /api/runs/{id}/dashboard
func (h *RunsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	plots, err := h.service.Dashboard(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, plots)
}
