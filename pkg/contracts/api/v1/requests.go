// Package api contains the request and response bodies of the pricing API.
package api

import (
	"pricecube/internal/pricing"
	"pricecube/pkg/contracts/domain"
)

// ObservationInput is one uploaded sale observation.
type ObservationInput struct {
	SKU                string  `json:"sku" validate:"required,sku"`
	Date               string  `json:"date" validate:"required,datetime=2006-01-02"`
	ProductName        string  `json:"product_name"`
	ProductDescription string  `json:"product_description"`
	ProductCategory    string  `json:"product_category"`
	UnitCost           float64 `json:"unit_cost"`
	CurrentPrice       float64 `json:"current_price"`
}

// CreateRunRequest starts a pricing run. Omitted seed and round fall back to
// the server configuration.
type CreateRunRequest struct {
	Source       string             `json:"source" validate:"required,oneof=generate upload"`
	Seed         *int64             `json:"seed,omitempty"`
	Rows         int                `json:"rows,omitempty" validate:"omitempty,min=1,max=1000000"`
	Round        *bool              `json:"round,omitempty"`
	Formats      []string           `json:"formats,omitempty" validate:"omitempty,dive,oneof=csv xlsx parquet json"`
	Observations []ObservationInput `json:"observations,omitempty" validate:"required_if=Source upload,dive"`
}

// ListRunsResponse is the body of GET /api/runs.
type ListRunsResponse struct {
	Runs  []domain.RunInfo `json:"runs"`
	Count int              `json:"count"`
}

// RowsResponse is one page of a run's enriched table.
type RowsResponse struct {
	RunID  string        `json:"run_id"`
	Total  int           `json:"total"`
	Offset int           `json:"offset"`
	Rows   []pricing.Row `json:"rows"`
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Storage string `json:"storage"`
	Clients int    `json:"websocket_clients"`
}
