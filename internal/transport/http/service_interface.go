package http

import (
	"context"

	"pricecube/internal/operations"
	api "pricecube/pkg/contracts/api/v1"
	"pricecube/pkg/contracts/domain"
)

// PricingService is what the runs handler needs from the service layer.
type PricingService interface {
	CreateRun(ctx context.Context, req api.CreateRunRequest) (domain.RunInfo, error)
	ListRuns(ctx context.Context) (api.ListRunsResponse, error)
	GetRun(ctx context.Context, id string) (domain.RunInfo, error)
	Rows(ctx context.Context, id string, offset, limit int) (api.RowsResponse, error)
	SkuModal(ctx context.Context, runID, sku string) (*domain.SkuModal, error)
	Recap(ctx context.Context, runID string) (domain.OptimizationRecap, error)
	Dashboard(ctx context.Context, runID string) (domain.DashboardPlots, error)
}

// HealthChecker reports service health.
type HealthChecker interface {
	Check(ctx context.Context) api.HealthResponse
}

// SnapshotSource exposes the status of pipeline runs.
type SnapshotSource interface {
	GetSnapshot(operationID string) (*operations.OperationSnapshot, bool)
	GetAllSnapshots() []*operations.OperationSnapshot
}
