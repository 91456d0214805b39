package dataprocessing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"pricecube/internal/pricing"
)

// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// dateLayouts are tried in order. The second and third match what dataframe
// libraries write for datetime columns.
var dateLayouts = []string{
	pricing.DateLayout,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

var requiredColumns = []string{pricing.ColSKU, pricing.ColUnitCost, pricing.ColCurrentPrice}

// ParseError locates a bad cell. Line is 1-based and counts the header.
type ParseError struct {
	Line   int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d, column %s: %v", e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseFile reads an observation table from a .csv or .xlsx file. Columns
// are matched by header name; extra columns such as the derived metrics of
// an enriched table are ignored.
func ParseFile(filePath string) ([]pricing.Observation, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".csv":
		f, err := os.Open(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}
		defer f.Close()
		return ParseCSV(f)
	case ".xlsx":
		return ParseWorkbook(filePath, "")
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filePath)
	}
}

// ParseCSV reads an observation table from r. A leading UTF-8 BOM is allowed.
func ParseCSV(r io.Reader) ([]pricing.Observation, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return parseRows(rows)
}

// ParseWorkbook reads an observation table from sheet, or from the first
// sheet whose header carries the required columns when sheet is empty.
func ParseWorkbook(filePath, sheet string) ([]pricing.Observation, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	if sheet != "" {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
		}
		return parseRows(rows)
	}

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil || len(rows) == 0 {
			continue
		}
		if _, err := mapColumns(rows[0]); err == nil {
			slog.Debug("found observation sheet", slog.String("sheet_name", name), slog.Int("rows", len(rows)))
			return parseRows(rows)
		}
	}
	return nil, fmt.Errorf("could not find an observation sheet in %s", filePath)
}

// mapColumns maps each known column name to its index in header.
func mapColumns(header []string) (map[string]int, error) {
	columnMap := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if _, dup := columnMap[name]; !dup && name != "" {
			columnMap[name] = i
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := columnMap[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return columnMap, nil
}

func parseRows(rows [][]string) ([]pricing.Observation, error) {
	if len(rows) == 0 {
		return nil, &ParseError{Line: 1, Err: errors.New("no header row")}
	}

	columnMap, err := mapColumns(rows[0])
	if err != nil {
		return nil, &ParseError{Line: 1, Err: err}
	}

	observations := make([]pricing.Observation, 0, len(rows)-1)
	for i, row := range rows[1:] {
		line := i + 2
		if isBlank(row) {
			continue
		}

		get := func(col string) string {
			if idx, ok := columnMap[col]; ok && idx < len(row) {
				return strings.TrimSpace(row[idx])
			}
			return ""
		}
		parseFloat := func(col string) (float64, error) {
			v, err := strconv.ParseFloat(strings.ReplaceAll(get(col), ",", ""), 64)
			if err != nil {
				return 0, &ParseError{Line: line, Column: col, Err: err}
			}
			return v, nil
		}

		sku := get(pricing.ColSKU)
		if sku == "" {
			return nil, &ParseError{Line: line, Column: pricing.ColSKU, Err: errors.New("empty sku")}
		}
		cost, err := parseFloat(pricing.ColUnitCost)
		if err != nil {
			return nil, err
		}
		price, err := parseFloat(pricing.ColCurrentPrice)
		if err != nil {
			return nil, err
		}

		var date time.Time
		if s := get(pricing.ColDate); s != "" {
			if date, err = parseDate(s); err != nil {
				return nil, &ParseError{Line: line, Column: pricing.ColDate, Err: err}
			}
		}

		observations = append(observations, pricing.Observation{
			SKU:                sku,
			Date:               date,
			ProductName:        get(pricing.ColProductName),
			ProductDescription: get(pricing.ColProductDescription),
			ProductCategory:    get(pricing.ColProductCategory),
			UnitCost:           cost,
			CurrentPrice:       price,
		})
	}

	return observations, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Truncate(24 * time.Hour), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
