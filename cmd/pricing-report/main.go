package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"pricecube/internal/config"
	"pricecube/internal/exporter"
	"pricecube/internal/files"
	"pricecube/internal/infrastructure"
	"pricecube/internal/operations"
	"pricecube/internal/services"
	"pricecube/pkg/contracts/domain"
)

type options struct {
	input     string
	dataDir   string
	outputDir string
	formats   []exporter.Format
	round     bool
	seed      int64
}

// report is printed to stdout when the run succeeds.
type report struct {
	RunID         string                   `json:"run_id"`
	Rows          int                      `json:"rows"`
	Cohorts       int                      `json:"cohorts"`
	FailedCohorts []string                 `json:"failed_cohorts"`
	Recap         domain.OptimizationRecap `json:"recap"`
	RevenueUplift float64                  `json:"revenue_uplift"`
	Files         []string                 `json:"files"`
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	input := flag.String("in", "", "observation table or directory to price (defaults to the newest table in the data directory)")
	outputDir := flag.String("out", "", "output directory (defaults to the configured output directory)")
	formats := flag.String("formats", "csv,json", "comma separated output formats: csv, parquet, xlsx, json")
	seed := flag.Int64("seed", 0, "random seed for curve fitting (defaults to the configured seed)")
	round := flag.Bool("round", true, "round unit quantities to whole units")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env", slog.String("error", err.Error()))
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	opts := options{input: *input, outputDir: *outputDir, round: *round, seed: cfg.Pricing.Seed}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			opts.seed = *seed
		}
	})
	if opts.formats, err = exporter.ParseFormats(*formats); err != nil {
		logger.Error("invalid formats", slog.String("error", err.Error()))
		os.Exit(2)
	}
	paths, err := cfg.ResolvePaths()
	if err != nil {
		logger.Error("failed to resolve paths", slog.String("error", err.Error()))
		os.Exit(1)
	}
	opts.dataDir = paths.DataDir
	if opts.outputDir == "" {
		opts.outputDir = paths.OutputDir
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, opts, os.Stdout, logger); err != nil {
		logger.ErrorContext(ctx, "pricing report failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// run prices the input table through the pipeline and prints a JSON report.
// A directory input (or none) is resolved to its newest table. Exports land
// in outputDir/<run id>.
func run(ctx context.Context, cfg *config.Config, opts options, out io.Writer, logger *slog.Logger) error {
	input, err := files.NewDiscovery(opts.dataDir, logger).
		WithExclude(config.ProductsTable).
		Resolve(opts.input)
	if err != nil {
		return fmt.Errorf("resolve input: %w", err)
	}

	catalog, err := config.CatalogFor(cfg.Pricing)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	registry, err := operations.NewPipelineRegistry(operations.StepDependencies{
		Catalog:   catalog,
		Pricing:   cfg.Pricing,
		OutputDir: opts.outputDir,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	broadcaster := operations.NewStatusBroadcaster(nil, logger)
	defer broadcaster.Stop()
	manager := operations.NewManager(registry, broadcaster, operations.WithManagerLogger(logger))

	state, err := manager.Execute(ctx, operations.Request{
		Source:    operations.SourceFile,
		Seed:      opts.seed,
		Round:     opts.round,
		InputPath: input,
		Formats:   opts.formats,
	})
	if err != nil {
		return err
	}

	result := state.Result()
	rep := report{
		RunID:         state.ID,
		Rows:          len(result.Rows),
		Cohorts:       len(result.Cohorts),
		FailedCohorts: []string{},
		Recap:         services.BuildRecap(result.Rows),
		Files:         state.Files(),
	}
	for _, c := range result.Cohorts {
		if c.Failed() {
			rep.FailedCohorts = append(rep.FailedCohorts, c.SKU)
		}
	}
	rep.RevenueUplift = rep.Recap.RevenueUplift()

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
