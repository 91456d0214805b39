package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "pricecube/internal/errors"
	"pricecube/internal/operations"
)

// OperationsHandler exposes pipeline progress for clients that poll instead
// of listening on the websocket.
type OperationsHandler struct {
	source       SnapshotSource
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewOperationsHandler creates a new operations handler
func NewOperationsHandler(source SnapshotSource, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *OperationsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if errorHandler == nil {
		errorHandler = apierrors.NewErrorHandler(logger, false)
	}
	return &OperationsHandler{
		source:       source,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "operations")),
	}
}

// Routes returns the /api/operations router.
func (h *OperationsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	return r
}

// List handles GET /api/operations
func (h *OperationsHandler) List(w http.ResponseWriter, r *http.Request) {
	snapshots := h.source.GetAllSnapshots()
	if snapshots == nil {
		snapshots = []*operations.OperationSnapshot{}
	}
	render.JSON(w, r, map[string]interface{}{
		"operations": snapshots,
		"count":      len(snapshots),
	})
}

// Get handles GET /api/operations/{id}
func (h *OperationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snapshot, ok := h.source.GetSnapshot(id)
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.NewNotFoundError("operation "+id))
		return
	}
	render.JSON(w, r, snapshot)
}
