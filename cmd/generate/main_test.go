package main

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricecube/internal/config"
	"pricecube/internal/dataprocessing"
	"pricecube/internal/exporter"
	"pricecube/internal/pricing"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestRun_WritesDataAndProducts(t *testing.T) {
	cfg := config.Default()
	cfg.Pricing.Rows = 450
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	files, err := run(context.Background(), cfg, options{
		outputDir: dir,
		formats:   []exporter.Format{exporter.FormatCSV},
	}, logger)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "data.csv"),
		filepath.Join(dir, "products.csv"),
	}, files)

	data := readCSV(t, files[0])
	require.Len(t, data, 451)
	assert.Equal(t, pricing.Columns, data[0])

	dateCol := -1
	for i, c := range data[0] {
		if c == pricing.ColDate {
			dateCol = i
		}
	}
	require.GreaterOrEqual(t, dateCol, 0)
	for i := 2; i < len(data); i++ {
		assert.LessOrEqual(t, data[i-1][dateCol], data[i][dateCol], "rows are ordered by date")
	}

	products := readCSV(t, files[1])
	assert.Equal(t, exporter.ProductColumns, products[0])
	assert.LessOrEqual(t, len(products)-1, len(config.DefaultCatalog().Products))

	// The enriched table reads back as observations.
	observations, err := dataprocessing.ParseFile(files[0])
	require.NoError(t, err)
	assert.Len(t, observations, 450)
}

func TestRun_SameSeedSameOutput(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Default()
	cfg.Pricing.Rows = 300

	write := func() []byte {
		dir := t.TempDir()
		files, err := run(context.Background(), cfg, options{
			outputDir: dir,
			formats:   []exporter.Format{exporter.FormatCSV},
		}, logger)
		require.NoError(t, err)
		b, err := os.ReadFile(files[0])
		require.NoError(t, err)
		return b
	}
	assert.Equal(t, write(), write())
}
