package services

import (
	"context"
	"log/slog"
	"time"

	"pricecube/pkg/contracts"
	api "pricecube/pkg/contracts/api/v1"
)

// Health states.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

// Pinger is implemented by stores with a remote backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ClientCounter reports connected websocket clients.
type ClientCounter interface {
	ClientCount() int
}

// HealthService reports process and storage health.
type HealthService struct {
	storage   string
	pinger    Pinger
	clients   ClientCounter
	startTime time.Time
	logger    *slog.Logger
}

// NewHealthService creates a health service. pinger and clients may be nil.
func NewHealthService(storageDriver string, pinger Pinger, clients ClientCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		storage:   storageDriver,
		pinger:    pinger,
		clients:   clients,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// Check pings the store and reports degraded when it does not answer.
func (h *HealthService) Check(ctx context.Context) api.HealthResponse {
	resp := api.HealthResponse{
		Status:  StatusHealthy,
		Version: contracts.Version,
		Storage: h.storage,
	}
	if h.clients != nil {
		resp.Clients = h.clients.ClientCount()
	}
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := h.pinger.Ping(ctx); err != nil {
			h.logger.WarnContext(ctx, "storage ping failed",
				slog.String("storage", h.storage),
				slog.String("error", err.Error()))
			resp.Status = StatusDegraded
		}
	}
	return resp
}

// Uptime is the time since the service was created.
func (h *HealthService) Uptime() time.Duration {
	return time.Since(h.startTime)
}
