package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pricecube/internal/config"
	"pricecube/internal/dataprocessing"
	"pricecube/internal/exporter"
	"pricecube/internal/infrastructure"
	"pricecube/internal/pricing"
	"pricecube/internal/simulation"
)

type options struct {
	outputDir string
	formats   []exporter.Format
	bom       bool
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	seed := flag.Int64("seed", pricing.DefaultSeed, "random seed for generation and curve fitting")
	rows := flag.Int("rows", simulation.DefaultRows, "number of observations to generate")
	round := flag.Bool("round", true, "round unit quantities to whole units")
	formats := flag.String("formats", "csv,parquet,xlsx", "comma separated output formats: csv, parquet, xlsx, json")
	outputDir := flag.String("out", "", "output directory (defaults to the data directory)")
	bom := flag.Bool("bom", false, "prefix CSV files with a UTF-8 byte order mark")
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

	// Flags given on the command line win over the configuration.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "seed":
			cfg.Pricing.Seed = *seed
		case "rows":
			cfg.Pricing.Rows = *rows
		case "round":
			cfg.Pricing.Round = *round
		}
	})

	opts := options{outputDir: *outputDir, bom: *bom}
	if opts.formats, err = exporter.ParseFormats(*formats); err != nil {
		logger.Error("invalid formats", slog.String("error", err.Error()))
		os.Exit(2)
	}
	if opts.outputDir == "" {
		paths, err := cfg.ResolvePaths()
		if err != nil {
			logger.Error("failed to resolve paths", slog.String("error", err.Error()))
			os.Exit(1)
		}
		opts.outputDir = paths.DataDir
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	files, err := run(ctx, cfg, opts, logger)
	if err != nil {
		logger.ErrorContext(ctx, "generation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	for _, f := range files {
		fmt.Println(f)
	}
}

// run generates the observation table, derives every metric, orders the
// rows by date and writes the data and products tables.
func run(ctx context.Context, cfg *config.Config, opts options, logger *slog.Logger) ([]string, error) {
	start := time.Now()

	catalog, err := config.CatalogFor(cfg.Pricing)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	gen, err := simulation.NewGeneratorFromConfig(catalog, cfg.Pricing, logger)
	if err != nil {
		return nil, fmt.Errorf("configure generator: %w", err)
	}
	observations, err := gen.Generate(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate observations: %w", err)
	}

	deriver := pricing.NewDeriver(catalog.CohortParams(),
		pricing.WithSeed(cfg.Pricing.Seed),
		pricing.WithRounding(cfg.Pricing.Round),
		pricing.WithConcurrency(cfg.Pricing.Concurrency),
		pricing.WithSteepnessRange(cfg.Pricing.SteepnessLow, cfg.Pricing.SteepnessHigh),
		pricing.WithLogger(logger),
	)
	result, err := deriver.Derive(ctx, observations)
	if err != nil {
		return nil, fmt.Errorf("derive metrics: %w", err)
	}
	dataprocessing.SortRowsByDate(result.Rows)

	if err := os.MkdirAll(opts.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	exp := exporter.NewTableExporter(opts.outputDir, logger, nil).WithBOM(opts.bom)
	files, err := exp.ExportResult(ctx, result, config.DataTable, config.ProductsTable, opts.formats)
	if err != nil {
		return files, err
	}

	logger.InfoContext(ctx, "dataset written",
		slog.Int("rows", len(result.Rows)),
		slog.Int("cohorts", len(result.Cohorts)),
		slog.Int("files", len(files)),
		slog.Duration("duration", time.Since(start)))
	return files, nil
}
