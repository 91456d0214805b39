package exporter

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xuri/excelize/v2"

	apperrors "pricecube/internal/errors"
	"pricecube/internal/pricing"
	"pricecube/internal/storage/storagetest"
)

func sampleResult() *pricing.Result {
	return storagetest.SampleRun("r1", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)).Result
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in      string
		want    []Format
		wantErr bool
	}{
		{in: "csv", want: []Format{FormatCSV}},
		{in: "CSV, parquet ,xlsx", want: []Format{FormatCSV, FormatParquet, FormatXLSX}},
		{in: "json,csv,json", want: []Format{FormatJSON, FormatCSV}},
		{in: "", wantErr: true},
		{in: " , ", wantErr: true},
		{in: "csv,feather", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormats(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProducts(t *testing.T) {
	row := func(sku, name string, cost float64) pricing.Row {
		return pricing.Row{Observation: pricing.Observation{
			SKU: sku, ProductName: name, ProductCategory: "C", UnitCost: cost, ProductDescription: name + " desc",
		}}
	}
	rows := []pricing.Row{
		row("S2", "Yoga Mat", 12),
		row("S1", "Blender", 40),
		row("S2", "Yoga Mat", 12),
		row("S3", "Blender", 45),
		row("S1", "Blender", 40),
	}

	products := Products(rows)
	require.Len(t, products, 3)
	assert.Equal(t, "S1", products[0].SKU)
	assert.Equal(t, "S3", products[1].SKU, "name ties break on sku")
	assert.Equal(t, "S2", products[2].SKU)
	assert.Equal(t, []string{"S2", "Yoga Mat", "C", "12", "Yoga Mat desc"}, products[2].Record())

	assert.Empty(t, Products(nil))
}

func TestTableExporter_ExportResult(t *testing.T) {
	dir := t.TempDir()
	e := NewTableExporter(dir, nil, nil)
	result := sampleResult()

	files, err := e.ExportResult(context.Background(), result, "data", "products",
		[]Format{FormatCSV, FormatXLSX, FormatParquet, FormatJSON})
	require.NoError(t, err)
	require.Len(t, files, 8)
	for _, f := range files {
		assert.FileExists(t, f)
	}

	t.Run("csv", func(t *testing.T) {
		records := readCSV(t, filepath.Join(dir, "data.csv"))
		require.Len(t, records, 3)
		assert.Equal(t, pricing.Columns, records[0])
		assert.Equal(t, result.Rows[0].Record(), records[1])
		assert.Equal(t, "", records[2][9], "null suggested price is an empty field")

		products := readCSV(t, filepath.Join(dir, "products.csv"))
		assert.Equal(t, [][]string{
			ProductColumns,
			{"A1", "Alpha", "Test", "50", "first"},
			{"B2", "Beta", "Test", "100", "second"},
		}, products)
	})

	t.Run("xlsx", func(t *testing.T) {
		f, err := excelize.OpenFile(filepath.Join(dir, "data.xlsx"))
		require.NoError(t, err)
		defer f.Close()

		rows, err := f.GetRows(DataSheet)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, pricing.Columns, rows[0])
		assert.Equal(t, "A1", rows[1][0])
		assert.Equal(t, "2024-01-02", rows[1][1])
		assert.Equal(t, "60", rows[1][6])
		assert.Equal(t, "", rows[2][9])

		pf, err := excelize.OpenFile(filepath.Join(dir, "products.xlsx"))
		require.NoError(t, err)
		defer pf.Close()
		prows, err := pf.GetRows(ProductsSheet)
		require.NoError(t, err)
		assert.Len(t, prows, 3)
	})

	t.Run("parquet", func(t *testing.T) {
		fr, err := local.NewLocalFileReader(filepath.Join(dir, "data.parquet"))
		require.NoError(t, err)
		defer fr.Close()

		pr, err := reader.NewParquetReader(fr, new(RowParquet), 1)
		require.NoError(t, err)
		defer pr.ReadStop()

		require.Equal(t, int64(2), pr.GetNumRows())
		got := make([]RowParquet, 2)
		require.NoError(t, pr.Read(&got))

		assert.Equal(t, NewRowParquet(result.Rows[0]), got[0])
		assert.Nil(t, got[1].SuggestedPrice)
		assert.Nil(t, got[1].OptimalRevenue)
		assert.Equal(t, 1080.0, got[1].CurrentRevenue)
	})

	t.Run("json", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(dir, "data.json"))
		require.NoError(t, err)
		var decoded pricing.Result
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Len(t, decoded.Rows, 2)
		assert.Len(t, decoded.Cohorts, 2)

		data, err = os.ReadFile(filepath.Join(dir, "products.json"))
		require.NoError(t, err)
		var products []ProductRecord
		require.NoError(t, json.Unmarshal(data, &products))
		assert.Equal(t, Products(result.Rows), products)
	})
}

func TestTableExporter_BOM(t *testing.T) {
	dir := t.TempDir()
	e := NewTableExporter(dir, nil, nil).WithBOM(true)

	_, err := e.ExportResult(context.Background(), sampleResult(), "data", "products", []Format{FormatCSV})
	require.NoError(t, err)

	for _, name := range []string{"data.csv", "products.csv"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.True(t, len(data) > 3 && string(data[:3]) == string(utf8BOM), name)
	}
}

func TestTableExporter_Errors(t *testing.T) {
	e := NewTableExporter(t.TempDir(), nil, nil)

	_, err := e.ExportResult(context.Background(), &pricing.Result{}, "data", "products", DefaultFormats)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrTypeValidation, appErr.Type)

	_, err = e.ExportRows(context.Background(), "data", sampleResult(), []Format{"feather"})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrTypeExport, appErr.Type)
	assert.Equal(t, "feather", appErr.Context["format"])
}

func TestTableExporter_UnwritableDir(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	e := NewTableExporter(filepath.Join(blocker, "out"), nil, nil)
	files, err := e.ExportRows(context.Background(), "data", sampleResult(), []Format{FormatCSV})
	assert.Empty(t, files)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrTypeExport, appErr.Type)
}
