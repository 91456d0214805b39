package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"pricecube/internal/clustering"
	"pricecube/internal/config"
	"pricecube/internal/infrastructure"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	catalogPath := flag.String("catalog", "", "product catalog YAML (defaults to the configured catalog)")
	compact := flag.Bool("compact", false, "print the tree on a single line")
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
	if *catalogPath != "" {
		cfg.Pricing.CatalogFile = *catalogPath
	}

	if err := run(cfg.Pricing, os.Stdout, !*compact); err != nil {
		logger.Error("clustering failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// run writes the dendrogram of the catalog's product descriptions to out.
func run(cfg config.PricingConfig, out io.Writer, indent bool) error {
	catalog, err := config.CatalogFor(cfg)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	tree, err := clustering.ProductTree(catalog)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(tree)
}
