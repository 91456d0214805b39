package http

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/render"

	"pricecube/internal/clustering"
	"pricecube/internal/config"
	apierrors "pricecube/internal/errors"
)

// ClustersHandler serves the product similarity dendrogram. The catalog is
// fixed for the life of the process, so the tree is computed once.
type ClustersHandler struct {
	catalog      *config.Catalog
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger

	once sync.Once
	tree *clustering.Node
	err  error
}

// NewClustersHandler creates a new clusters handler
func NewClustersHandler(catalog *config.Catalog, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *ClustersHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if errorHandler == nil {
		errorHandler = apierrors.NewErrorHandler(logger, false)
	}
	return &ClustersHandler{
		catalog:      catalog,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "clusters")),
	}
}

// ServeHTTP handles GET /api/products/clusters
func (h *ClustersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.once.Do(func() {
		h.tree, h.err = clustering.ProductTree(h.catalog)
		if h.err == nil {
			h.logger.InfoContext(r.Context(), "product tree built",
				slog.Int("products", len(h.catalog.Products)))
		}
	})
	if h.err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewInternalAppError("clustering products", h.err))
		return
	}
	render.JSON(w, r, h.tree)
}
