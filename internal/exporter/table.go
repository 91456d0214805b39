package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "pricecube/internal/errors"
	"pricecube/internal/infrastructure"
	"pricecube/internal/pricing"
)

// Format is an output file format.
type Format string

// Supported output formats.
const (
	FormatCSV     Format = "csv"
	FormatXLSX    Format = "xlsx"
	FormatParquet Format = "parquet"
	FormatJSON    Format = "json"
)

// DefaultFormats are written when the caller does not choose.
var DefaultFormats = []Format{FormatCSV, FormatParquet}

// ParseFormats parses a comma separated list such as "csv,parquet".
// Duplicates are dropped and order is kept.
func ParseFormats(s string) ([]Format, error) {
	var formats []Format
	seen := make(map[Format]bool)
	for _, part := range strings.Split(s, ",") {
		f := Format(strings.ToLower(strings.TrimSpace(part)))
		if f == "" {
			continue
		}
		switch f {
		case FormatCSV, FormatXLSX, FormatParquet, FormatJSON:
		default:
			return nil, fmt.Errorf("unknown output format %q", part)
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	if len(formats) == 0 {
		return nil, fmt.Errorf("no output format given")
	}
	return formats, nil
}

// ProductRecord is one line of the products table.
type ProductRecord struct {
	SKU         string  `json:"sku"`
	Name        string  `json:"product_name"`
	Category    string  `json:"product_category"`
	UnitCost    float64 `json:"unit_cost"`
	Description string  `json:"product_description"`
}

// ProductColumns is the header of the products table.
var ProductColumns = []string{
	pricing.ColSKU, pricing.ColProductName, pricing.ColProductCategory,
	pricing.ColUnitCost, pricing.ColProductDescription,
}

// Record formats p in ProductColumns order.
func (p ProductRecord) Record() []string {
	return []string{p.SKU, p.Name, p.Category, pricing.FormatFloat(p.UnitCost), p.Description}
}

// Products extracts the distinct products of rows sorted by name, then SKU.
func Products(rows []pricing.Row) []ProductRecord {
	seen := make(map[ProductRecord]bool)
	var products []ProductRecord
	for _, r := range rows {
		p := ProductRecord{
			SKU:         r.SKU,
			Name:        r.ProductName,
			Category:    r.ProductCategory,
			UnitCost:    r.UnitCost,
			Description: r.ProductDescription,
		}
		if !seen[p] {
			seen[p] = true
			products = append(products, p)
		}
	}

	sort.Slice(products, func(i, j int) bool {
		if products[i].Name != products[j].Name {
			return products[i].Name < products[j].Name
		}
		return products[i].SKU < products[j].SKU
	})
	return products
}

// TableExporter writes the enriched data table and the products table to a
// directory in one or more formats.
type TableExporter struct {
	dir       string
	csv       *CSVWriter
	bomPrefix bool
	metrics   *infrastructure.PricingMetrics
	logger    *slog.Logger
}

// NewTableExporter creates an exporter writing below dir. metrics may be nil.
func NewTableExporter(dir string, logger *slog.Logger, metrics *infrastructure.PricingMetrics) *TableExporter {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "exporter"))
	return &TableExporter{
		dir:     dir,
		csv:     NewCSVWriter(dir, logger),
		metrics: metrics,
		logger:  logger,
	}
}

// WithBOM prefixes CSV output with a UTF-8 byte order mark for Excel.
func (e *TableExporter) WithBOM(bom bool) *TableExporter {
	e.bomPrefix = bom
	return e
}

// Dir is the output directory.
func (e *TableExporter) Dir() string {
	return e.dir
}

// ExportResult writes result's rows as name and its products as productsName,
// once per format, and returns the written paths.
func (e *TableExporter) ExportResult(ctx context.Context, result *pricing.Result, name, productsName string, formats []Format) ([]string, error) {
	if result == nil || len(result.Rows) == 0 {
		return nil, apperrors.NewAppValidationError("no rows to export")
	}

	files, err := e.ExportRows(ctx, name, result, formats)
	if err != nil {
		return files, err
	}
	more, err := e.ExportProducts(ctx, productsName, Products(result.Rows), formats)
	return append(files, more...), err
}

// ExportRows writes the enriched table. The JSON format carries the cohort
// fits as well as the rows.
func (e *TableExporter) ExportRows(ctx context.Context, name string, result *pricing.Result, formats []Format) ([]string, error) {
	rows := result.Rows
	var files []string
	for _, f := range formats {
		path := e.path(name, f)

		var err error
		switch f {
		case FormatCSV:
			err = e.writeRowsCSV(path, rows)
		case FormatXLSX:
			err = writeRowsXLSX(path, rows)
		case FormatParquet:
			err = writeRowsParquet(path, rows)
		case FormatJSON:
			err = pricing.SaveToJSON(result, path)
		default:
			err = fmt.Errorf("unsupported format %q", f)
		}
		if err != nil {
			return files, apperrors.NewExportError(string(f), err).WithContext("path", path)
		}

		e.recorded(ctx, f, path, len(rows))
		files = append(files, path)
	}
	return files, nil
}

// ExportProducts writes the products table.
func (e *TableExporter) ExportProducts(ctx context.Context, name string, products []ProductRecord, formats []Format) ([]string, error) {
	var files []string
	for _, f := range formats {
		path := e.path(name, f)

		var err error
		switch f {
		case FormatCSV:
			records := make([][]string, len(products))
			for i, p := range products {
				records[i] = p.Record()
			}
			err = e.csv.WriteCSV(path, WriteOptions{
				Headers:   ProductColumns,
				Records:   records,
				BOMPrefix: e.bomPrefix,
			})
		case FormatXLSX:
			err = writeProductsXLSX(path, products)
		case FormatParquet:
			err = writeProductsParquet(path, products)
		case FormatJSON:
			err = writeJSON(path, products)
		default:
			err = fmt.Errorf("unsupported format %q", f)
		}
		if err != nil {
			return files, apperrors.NewExportError(string(f), err).WithContext("path", path)
		}

		e.recorded(ctx, f, path, len(products))
		files = append(files, path)
	}
	return files, nil
}

func (e *TableExporter) writeRowsCSV(path string, rows []pricing.Row) error {
	sw, err := e.csv.CreateStreamWriter(path, pricing.Columns, e.bomPrefix)
	if err != nil {
		return err
	}
	for i, r := range rows {
		if err := sw.WriteRecord(r.Record()); err != nil {
			sw.Close()
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	return sw.Close()
}

func (e *TableExporter) recorded(ctx context.Context, f Format, path string, rows int) {
	e.metrics.RecordExport(ctx, string(f), rows)
	e.logger.InfoContext(ctx, "table exported",
		slog.String("format", string(f)),
		slog.String("path", path),
		slog.Int("rows", rows))
}

func (e *TableExporter) path(name string, f Format) string {
	return filepath.Join(e.dir, name+"."+string(f))
}

func writeJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
