package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Table base names, without extension.
const (
	DataTable     = "data"
	ProductsTable = "products"
)

// Paths contains the resolved application paths.
type Paths struct {
	BaseDir   string
	DataDir   string
	OutputDir string
	LogsDir   string
}

// ResolvePaths makes every configured path absolute.
func (c *Config) ResolvePaths() (*Paths, error) {
	base := c.Paths.BaseDir
	if base == "" {
		base = "."
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}

	return &Paths{
		BaseDir:   base,
		DataDir:   resolve(c.Paths.DataDir),
		OutputDir: resolve(c.Paths.OutputDir),
		LogsDir:   resolve(c.Paths.LogsDir),
	}, nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.OutputDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// DataPath returns the generated data table path with the given extension.
func (p *Paths) DataPath(ext string) string {
	return filepath.Join(p.DataDir, DataTable+"."+ext)
}

// ProductsPath returns the products table path with the given extension.
func (p *Paths) ProductsPath(ext string) string {
	return filepath.Join(p.DataDir, ProductsTable+"."+ext)
}

// RunOutputDir returns the directory holding the exports of one run.
func (p *Paths) RunOutputDir(runID string) string {
	return filepath.Join(p.OutputDir, runID)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
