package operations

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"pricecube/internal/config"
	"pricecube/internal/dataprocessing"
	"pricecube/internal/exporter"
	"pricecube/internal/infrastructure"
	"pricecube/internal/pricing"
	"pricecube/internal/simulation"
	"pricecube/internal/storage"
)

// StepDependencies are the collaborators of the pipeline steps.
type StepDependencies struct {
	Catalog *config.Catalog
	Pricing config.PricingConfig

	// OutputDir is the root under which each run gets its own export
	// directory. Empty skips the export step.
	OutputDir string
	BOM       bool

	// Store keeps derived runs. Nil skips the persist step.
	Store storage.RunStore

	Metrics *infrastructure.PricingMetrics
	Logger  *slog.Logger
}

// NewPipelineRegistry registers the four pricing steps.
func NewPipelineRegistry(deps StepDependencies) (*Registry, error) {
	if deps.Catalog == nil {
		return nil, fmt.Errorf("pipeline requires a product catalog")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	r := NewRegistry()
	for _, step := range []Step{
		&SourceStep{BaseStep: NewBaseStep(StepSource, "Load observations"), deps: deps},
		&DeriveStep{BaseStep: NewBaseStep(StepDerive, "Derive metrics", StepSource), deps: deps},
		&ExportStep{BaseStep: NewBaseStep(StepExport, "Export tables", StepDerive), deps: deps},
		&PersistStep{BaseStep: NewBaseStep(StepPersist, "Persist run", StepDerive), deps: deps},
	} {
		if err := r.Register(step); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// SourceStep produces the observation table: generated from the catalog,
// taken from the request or parsed from a file.
type SourceStep struct {
	BaseStep
	deps StepDependencies
}

// Execute loads the observations into state.
func (s *SourceStep) Execute(ctx context.Context, state *OperationState) error {
	req := state.Request

	var (
		obs []pricing.Observation
		err error
	)
	switch req.Source {
	case SourceGenerate:
		obs, err = s.generate(ctx, req)
	case SourceUpload:
		obs = req.Observations
	case SourceFile:
		obs, err = dataprocessing.ParseFile(req.InputPath)
	default:
		err = NewValidationError(s.ID(), "unknown source "+req.Source)
	}
	if err != nil {
		return err
	}

	stats := dataprocessing.Describe(obs)
	s.deps.Logger.InfoContext(ctx, "observations loaded",
		slog.String("source", req.Source),
		slog.Int("rows", stats.Rows),
		slog.Int("skus", stats.SKUs),
		slog.Int("days", stats.Days))

	state.SetObservations(obs)
	state.ReportProgress(s.ID(), 100, fmt.Sprintf("loaded %d rows over %d SKUs", stats.Rows, stats.SKUs))
	return nil
}

func (s *SourceStep) generate(ctx context.Context, req Request) ([]pricing.Observation, error) {
	start, end, err := s.deps.Pricing.DateRange()
	if err != nil {
		return nil, err
	}
	g := simulation.NewGenerator(s.deps.Catalog,
		simulation.WithSeed(req.Seed),
		simulation.WithRows(req.Rows),
		simulation.WithDateRange(start, end),
		simulation.WithLogger(s.deps.Logger),
	)
	return g.Generate(ctx)
}

// DeriveStep runs the pricing core over the loaded observations.
type DeriveStep struct {
	BaseStep
	deps StepDependencies
}

// Execute derives every metric. Generated tables are reordered by date.
func (s *DeriveStep) Execute(ctx context.Context, state *OperationState) error {
	req := state.Request
	cfg := s.deps.Pricing

	deriver := pricing.NewDeriver(s.deps.Catalog.CohortParams(),
		pricing.WithSeed(req.Seed),
		pricing.WithRounding(req.Round),
		pricing.WithConcurrency(cfg.Concurrency),
		pricing.WithSteepnessRange(cfg.SteepnessLow, cfg.SteepnessHigh),
		pricing.WithLogger(s.deps.Logger),
	)

	state.ReportProgress(s.ID(), 10, "fitting demand curves")
	result, err := deriver.Derive(ctx, state.Observations())
	if err != nil {
		return err
	}
	if req.Source == SourceGenerate {
		dataprocessing.SortRowsByDate(result.Rows)
	}

	failed := 0
	for _, c := range result.Cohorts {
		if c.Failed() {
			failed++
		}
	}
	s.deps.Metrics.RecordDerivation(ctx, len(result.Rows), len(result.Cohorts), failed)

	state.SetResult(result)
	state.ReportProgress(s.ID(), 100, fmt.Sprintf("derived %d cohorts, %d without optimum", len(result.Cohorts), failed))
	return nil
}

// ExportStep writes the data and products tables of a run.
type ExportStep struct {
	BaseStep
	deps StepDependencies
}

// SkipReason implements Skipper.
func (s *ExportStep) SkipReason(state *OperationState) string {
	switch {
	case s.deps.OutputDir == "":
		return "no output directory configured"
	case len(state.Request.Formats) == 0:
		return "no export formats requested"
	}
	return ""
}

// Execute writes one file per table and format below OutputDir/<run id>.
func (s *ExportStep) Execute(ctx context.Context, state *OperationState) error {
	dir := filepath.Join(s.deps.OutputDir, state.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	exp := exporter.NewTableExporter(dir, s.deps.Logger, s.deps.Metrics).WithBOM(s.deps.BOM)
	files, err := exp.ExportResult(ctx, state.Result(), config.DataTable, config.ProductsTable, state.Request.Formats)
	state.AddFiles(files...)
	if err != nil {
		return err
	}
	state.ReportProgress(s.ID(), 100, fmt.Sprintf("wrote %d files", len(files)))
	return nil
}

// PersistStep saves the run in the store.
type PersistStep struct {
	BaseStep
	deps StepDependencies
}

// SkipReason implements Skipper.
func (s *PersistStep) SkipReason(*OperationState) string {
	if s.deps.Store == nil {
		return "no run store configured"
	}
	return ""
}

// Execute stores the derived result under the operation id.
func (s *PersistStep) Execute(ctx context.Context, state *OperationState) error {
	req := state.Request
	run := &storage.Run{
		ID:        state.ID,
		CreatedAt: time.Now().UTC(),
		Source:    req.StoredSource(),
		Seed:      req.Seed,
		Rounded:   req.Round,
		Result:    state.Result(),
	}
	if err := s.deps.Store.Save(ctx, run); err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	state.SetRun(run)
	state.ReportProgress(s.ID(), 100, "run saved")
	return nil
}
