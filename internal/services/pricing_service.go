package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"pricecube/internal/config"
	"pricecube/internal/dataprocessing"
	apperrors "pricecube/internal/errors"
	"pricecube/internal/exporter"
	"pricecube/internal/operations"
	"pricecube/internal/pricing"
	"pricecube/internal/simulation"
	"pricecube/internal/storage"
	api "pricecube/pkg/contracts/api/v1"
	"pricecube/pkg/contracts/domain"
)

// LatestRun resolves to the newest stored run wherever a run id is accepted.
const LatestRun = "latest"

// Paging limits of Rows.
const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

// DefaultGridSize is the number of prices a SKU modal evaluates.
const DefaultGridSize = 50

// PricingService runs pricing pipelines and builds the views over stored runs.
type PricingService struct {
	manager  *operations.Manager
	store    storage.RunStore
	catalog  *config.Catalog
	defaults config.PricingConfig
	gridSize int
	logger   *slog.Logger
}

// NewPricingService creates a pricing service. defaults supplies seed, round
// and rows when a request leaves them out.
func NewPricingService(manager *operations.Manager, store storage.RunStore, catalog *config.Catalog, defaults config.PricingConfig, logger *slog.Logger) *PricingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PricingService{
		manager:  manager,
		store:    store,
		catalog:  catalog,
		defaults: defaults,
		gridSize: DefaultGridSize,
		logger:   logger.With(slog.String("service", "pricing")),
	}
}

// WithGridSize changes the number of prices evaluated by SkuModal.
func (s *PricingService) WithGridSize(n int) *PricingService {
	if n >= 2 {
		s.gridSize = n
	}
	return s
}

// CreateRun executes the pipeline for req and returns the stored run.
func (s *PricingService) CreateRun(ctx context.Context, req api.CreateRunRequest) (domain.RunInfo, error) {
	opReq, err := s.operationRequest(req)
	if err != nil {
		return domain.RunInfo{}, err
	}

	s.logger.InfoContext(ctx, "pricing run requested",
		slog.String("source", opReq.Source),
		slog.Int64("seed", opReq.Seed),
		slog.Bool("round", opReq.Round),
		slog.Int("observations", len(opReq.Observations)))

	state, err := s.manager.Execute(ctx, opReq)
	if err != nil {
		return domain.RunInfo{}, classifyRunError(err)
	}

	info := runInfoFromState(state)
	s.logger.InfoContext(ctx, "pricing run completed",
		slog.String("run_id", info.ID),
		slog.Int("rows", info.Rows),
		slog.Int("failed_cohorts", info.FailedCohorts))
	return info, nil
}

func (s *PricingService) operationRequest(req api.CreateRunRequest) (operations.Request, error) {
	out := operations.Request{
		Seed:  s.defaults.Seed,
		Round: s.defaults.Round,
		Rows:  s.defaults.Rows,
	}
	if req.Seed != nil {
		out.Seed = *req.Seed
	}
	if req.Round != nil {
		out.Round = *req.Round
	}
	if req.Rows > 0 {
		out.Rows = req.Rows
	}

	switch req.Source {
	case operations.SourceGenerate:
		out.Source = operations.SourceGenerate
		if need := simulation.MinRows(s.catalog); out.Rows < need {
			return operations.Request{}, apperrors.NewAppValidationError(
				fmt.Sprintf("rows must be at least %d for a catalog of %d products", need, len(s.catalog.Products)))
		}
	case operations.SourceUpload:
		out.Source = operations.SourceUpload
		obs, err := observationsFromInput(req.Observations)
		if err != nil {
			return operations.Request{}, err
		}
		out.Observations = obs
	default:
		return operations.Request{}, apperrors.NewAppValidationError(fmt.Sprintf("unsupported source %q", req.Source))
	}

	if len(req.Formats) > 0 {
		formats, err := exporter.ParseFormats(strings.Join(req.Formats, ","))
		if err != nil {
			return operations.Request{}, apperrors.NewAppValidationError(err.Error())
		}
		out.Formats = formats
	}
	return out, nil
}

func observationsFromInput(in []api.ObservationInput) ([]pricing.Observation, error) {
	out := make([]pricing.Observation, len(in))
	for i, o := range in {
		date, err := time.Parse(pricing.DateLayout, o.Date)
		if err != nil {
			return nil, apperrors.NewAppValidationError(fmt.Sprintf("observation %d: invalid date %q", i, o.Date))
		}
		out[i] = pricing.Observation{
			SKU:                o.SKU,
			Date:               date,
			ProductName:        o.ProductName,
			ProductDescription: o.ProductDescription,
			ProductCategory:    o.ProductCategory,
			UnitCost:           o.UnitCost,
			CurrentPrice:       o.CurrentPrice,
		}
	}
	return out, nil
}

// classifyRunError maps a failed pipeline onto the application error types.
// Rejected tables and cancellations pass through unchanged.
func classifyRunError(err error) error {
	if errors.Is(err, pricing.ErrInvalidCohortData) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if operations.IsValidation(err) || errors.Is(err, simulation.ErrTooFewRows) {
		return apperrors.NewAppValidationError(err.Error())
	}

	var opErr *operations.OperationError
	if errors.As(err, &opErr) {
		switch opErr.Step {
		case operations.StepExport:
			return apperrors.NewAppError(apperrors.ErrTypeExport, "export failed", err)
		case operations.StepPersist:
			return apperrors.NewStorageError("failed to store run", err)
		}
	}
	return apperrors.NewInternalAppError("pricing run failed", err)
}

func runInfoFromState(state *operations.OperationState) domain.RunInfo {
	var info domain.RunInfo
	if run := state.Run(); run != nil {
		info = runInfo(run.Summary())
	} else {
		run := &storage.Run{
			ID:        state.ID,
			CreatedAt: state.StartTime.UTC(),
			Source:    state.Request.StoredSource(),
			Seed:      state.Request.Seed,
			Rounded:   state.Request.Round,
			Result:    state.Result(),
		}
		info = runInfo(run.Summary())
	}
	info.Files = state.Files()
	return info
}

func runInfo(s storage.RunSummary) domain.RunInfo {
	return domain.RunInfo{
		ID:            s.ID,
		CreatedAt:     s.CreatedAt,
		Source:        s.Source,
		Seed:          s.Seed,
		Rounded:       s.Rounded,
		Rows:          s.Rows,
		Cohorts:       s.Cohorts,
		FailedCohorts: s.FailedCohorts,
	}
}

// ListRuns returns every stored run, newest first.
func (s *PricingService) ListRuns(ctx context.Context) (api.ListRunsResponse, error) {
	summaries, err := s.store.List(ctx)
	if err != nil {
		return api.ListRunsResponse{}, apperrors.NewStorageError("failed to list runs", err)
	}
	runs := make([]domain.RunInfo, len(summaries))
	for i, sum := range summaries {
		runs[i] = runInfo(sum)
	}
	return api.ListRunsResponse{Runs: runs, Count: len(runs)}, nil
}

// GetRun describes one stored run.
func (s *PricingService) GetRun(ctx context.Context, id string) (domain.RunInfo, error) {
	run, err := s.run(ctx, id)
	if err != nil {
		return domain.RunInfo{}, err
	}
	return runInfo(run.Summary()), nil
}

// Rows returns a page of a run's enriched table. A zero limit selects
// DefaultPageSize.
func (s *PricingService) Rows(ctx context.Context, id string, offset, limit int) (api.RowsResponse, error) {
	if offset < 0 {
		return api.RowsResponse{}, apperrors.NewAppValidationError("offset must not be negative")
	}
	switch {
	case limit < 0:
		return api.RowsResponse{}, apperrors.NewAppValidationError("limit must not be negative")
	case limit == 0:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}

	run, err := s.run(ctx, id)
	if err != nil {
		return api.RowsResponse{}, err
	}

	rows := run.Result.Rows
	resp := api.RowsResponse{RunID: run.ID, Total: len(rows), Offset: offset, Rows: []pricing.Row{}}
	if offset < len(rows) {
		end := offset + limit
		if end > len(rows) {
			end = len(rows)
		}
		resp.Rows = rows[offset:end]
	}
	return resp, nil
}

// SkuModal evaluates the fitted curve of sku over its optimization bounds.
func (s *PricingService) SkuModal(ctx context.Context, runID, sku string) (*domain.SkuModal, error) {
	run, err := s.run(ctx, runID)
	if err != nil {
		return nil, err
	}
	cohort, ok := run.Result.Cohort(sku)
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("sku %s in run %s", sku, run.ID))
	}

	modal := BuildSkuModal(cohort, s.gridSize)
	modal.Name, modal.Description = s.describe(run.Result.Rows, sku)
	return modal, nil
}

// BuildSkuModal evaluates a cohort's curve and net margin on n evenly spaced
// prices spanning its bounds, endpoints included.
func BuildSkuModal(c pricing.CohortSummary, n int) *domain.SkuModal {
	if n < 2 {
		n = 2
	}
	netMargin := func(p float64) float64 {
		return (p - c.UnitCost) * c.Curve.Volume(p)
	}
	point := func(p *float64) *domain.Point {
		if p == nil {
			return nil
		}
		return &domain.Point{X: *p, Y: netMargin(*p)}
	}

	low, high := c.Bounds.Low, c.Bounds.High
	m := &domain.SkuModal{
		SKU:              c.SKU,
		MinValue:         domain.Point{X: low, Y: netMargin(low)},
		MaxValue:         domain.Point{X: high, Y: netMargin(high)},
		PriceX:           make([]float64, n),
		VolumeY:          make([]float64, n),
		NetMarginY:       make([]float64, n),
		SuggestedOptimal: point(c.SuggestedPrice),
		GlobalOptimal:    point(c.GlobalOptimalPrice),
	}
	step := (high - low) / float64(n-1)
	for i := 0; i < n; i++ {
		p := low + float64(i)*step
		if i == n-1 {
			p = high
		}
		m.PriceX[i] = p
		m.VolumeY[i] = c.Curve.Volume(p)
		m.NetMarginY[i] = (p - c.UnitCost) * m.VolumeY[i]
	}
	return m
}

// describe takes name and description from the run's rows, falling back to
// the catalog for rows that carry none.
func (s *PricingService) describe(rows []pricing.Row, sku string) (string, string) {
	for _, r := range rows {
		if r.SKU == sku && (r.ProductName != "" || r.ProductDescription != "") {
			return r.ProductName, r.ProductDescription
		}
	}
	if s.catalog != nil {
		if p, ok := s.catalog.Product(sku); ok {
			return p.Name, p.Description
		}
	}
	return "", ""
}

// Recap sums current and expected revenue and net margin over a run.
func (s *PricingService) Recap(ctx context.Context, runID string) (domain.OptimizationRecap, error) {
	run, err := s.run(ctx, runID)
	if err != nil {
		return domain.OptimizationRecap{}, err
	}
	return BuildRecap(run.Result.Rows), nil
}

// BuildRecap sums the rows. Null expected values are skipped.
func BuildRecap(rows []pricing.Row) domain.OptimizationRecap {
	var r domain.OptimizationRecap
	for _, row := range rows {
		r.CurrentRevenue += row.CurrentRevenue
		r.CurrentNetMargin += row.CurrentNetMargin
		r.ExpectedRevenue += value(row.ExpectedRevenueExpectedVolume)
		r.ExpectedNetMargin += value(row.ExpectedNetMarginExpectedVolume)
	}
	return r
}

// Dashboard returns per-day totals of a run.
func (s *PricingService) Dashboard(ctx context.Context, runID string) (domain.DashboardPlots, error) {
	run, err := s.run(ctx, runID)
	if err != nil {
		return domain.DashboardPlots{}, err
	}
	return BuildDashboard(run.Result.Rows), nil
}

// BuildDashboard sums rows per calendar day in ascending date order.
func BuildDashboard(rows []pricing.Row) domain.DashboardPlots {
	buckets := dataprocessing.GroupByDate(rows)
	n := len(buckets)
	d := domain.DashboardPlots{
		Dates:             make([]time.Time, n),
		Costs:             make([]float64, n),
		CurrentRevenue:    make([]float64, n),
		ExpectedRevenue:   make([]float64, n),
		CurrentNetMargin:  make([]float64, n),
		ExpectedNetMargin: make([]float64, n),
	}
	for i, b := range buckets {
		d.Dates[i] = b.Date
		for _, r := range b.Rows {
			d.Costs[i] += r.Costs()
			d.CurrentRevenue[i] += r.CurrentRevenue
			d.ExpectedRevenue[i] += value(r.ExpectedRevenueExpectedVolume)
			d.CurrentNetMargin[i] += r.CurrentNetMargin
			d.ExpectedNetMargin[i] += value(r.ExpectedNetMarginExpectedVolume)
		}
	}
	return d
}

func (s *PricingService) run(ctx context.Context, id string) (*storage.Run, error) {
	var (
		run *storage.Run
		err error
	)
	if id == LatestRun {
		run, err = s.store.Latest(ctx)
	} else {
		run, err = s.store.Get(ctx, id)
	}
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, apperrors.NewNotFoundError("run " + id)
	case err != nil:
		return nil, apperrors.NewStorageError("failed to load run", err)
	}
	return run, nil
}

func value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
