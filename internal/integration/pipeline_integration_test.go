package integration

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"pricecube/internal/config"
	"pricecube/internal/dataprocessing"
	"pricecube/internal/exporter"
	"pricecube/internal/files"
	"pricecube/internal/pricing"
	"pricecube/internal/simulation"
)

// PipelineRoundTripSuite generates a dataset, prices it, exports it and
// checks that re-reading the exported table reproduces the same pricing.
type PipelineRoundTripSuite struct {
	suite.Suite

	dir     string
	logger  *slog.Logger
	catalog *config.Catalog
	cfg     config.PricingConfig

	observations []pricing.Observation
	result       *pricing.Result
	files        []string
}

func (s *PipelineRoundTripSuite) SetupSuite() {
	s.dir = s.T().TempDir()
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.catalog = config.DefaultCatalog()
	s.cfg = config.Default().Pricing
	s.cfg.Rows = 600
	s.cfg.Seed = 7

	gen, err := simulation.NewGeneratorFromConfig(s.catalog, s.cfg, s.logger)
	s.Require().NoError(err)
	s.observations, err = gen.Generate(context.Background())
	s.Require().NoError(err)

	s.result, err = s.derive(s.observations)
	s.Require().NoError(err)

	exp := exporter.NewTableExporter(s.dir, s.logger, nil)
	s.files, err = exp.ExportResult(context.Background(), s.result, config.DataTable, config.ProductsTable,
		[]exporter.Format{exporter.FormatCSV, exporter.FormatXLSX, exporter.FormatParquet})
	s.Require().NoError(err)
}

func (s *PipelineRoundTripSuite) derive(obs []pricing.Observation) (*pricing.Result, error) {
	d := pricing.NewDeriver(s.catalog.CohortParams(),
		pricing.WithSeed(s.cfg.Seed),
		pricing.WithRounding(true),
		pricing.WithLogger(s.logger))
	return d.Derive(context.Background(), obs)
}

func (s *PipelineRoundTripSuite) TestExportedFiles() {
	for _, ext := range []string{"csv", "xlsx", "parquet"} {
		s.Contains(s.files, filepath.Join(s.dir, config.DataTable+"."+ext))
		s.Contains(s.files, filepath.Join(s.dir, config.ProductsTable+"."+ext))
	}
	for _, f := range s.files {
		s.FileExists(f)
	}
}

func (s *PipelineRoundTripSuite) TestCSVReproducesPricing() {
	parsed, err := dataprocessing.ParseFile(filepath.Join(s.dir, config.DataTable+".csv"))
	s.Require().NoError(err)
	s.Require().Len(parsed, len(s.observations))

	again, err := s.derive(parsed)
	s.Require().NoError(err)
	s.Require().Len(again.Cohorts, len(s.result.Cohorts))

	for i, want := range s.result.Cohorts {
		got := again.Cohorts[i]
		s.Equal(want.SKU, got.SKU)
		s.Equal(want.Observations, got.Observations)
		s.Equal(want.Failed(), got.Failed(), want.SKU)
		if want.SuggestedPrice != nil && got.SuggestedPrice != nil {
			s.InDelta(*want.SuggestedPrice, *got.SuggestedPrice, 1e-9, want.SKU)
		}
		if want.GlobalOptimalPrice != nil && got.GlobalOptimalPrice != nil {
			s.InDelta(*want.GlobalOptimalPrice, *got.GlobalOptimalPrice, 1e-9, want.SKU)
		}
	}
}

func (s *PipelineRoundTripSuite) TestWorkbookReadsBack() {
	parsed, err := dataprocessing.ParseFile(filepath.Join(s.dir, config.DataTable+".xlsx"))
	s.Require().NoError(err)
	s.Require().Len(parsed, len(s.result.Rows))

	for i, row := range s.result.Rows {
		s.Equal(row.SKU, parsed[i].SKU)
		s.True(row.Date.Equal(parsed[i].Date), "row %d date", i)
		s.InDelta(row.UnitCost, parsed[i].UnitCost, 1e-6)
		s.InDelta(row.CurrentPrice, parsed[i].CurrentPrice, 1e-6)
	}
}

func (s *PipelineRoundTripSuite) TestDiscoveryPicksDataTable() {
	d := files.NewDiscovery(s.dir, s.logger).WithExclude(config.ProductsTable)
	tables, err := d.FindTables("")
	s.Require().NoError(err)
	s.Len(tables, 2, "data.csv and data.xlsx")

	path, err := d.Resolve("")
	s.Require().NoError(err)
	s.Equal(config.DataTable, trimExt(filepath.Base(path)))
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}

func TestPipelineRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PipelineRoundTripSuite))
}
