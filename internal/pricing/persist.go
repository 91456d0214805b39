package pricing

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// DateLayout is the date format used in every tabular output.
const DateLayout = "2006-01-02"

// Column names of the enriched table, in output order.
const (
	ColSKU                             = "sku"
	ColDate                            = "date"
	ColProductName                     = "product_name"
	ColProductDescription              = "product_description"
	ColProductCategory                 = "product_category"
	ColUnitCost                        = "unit_cost"
	ColCurrentPrice                    = "current_price"
	ColMinPrice                        = "min_price"
	ColMaxPrice                        = "max_price"
	ColSuggestedPrice                  = "suggested_price"
	ColGlobalOptimalPrice              = "global_optimal_price"
	ColUnitsSold                       = "units_sold"
	ColExpectedUnitsSold               = "expected_units_sold"
	ColOptimalUnitsSold                = "optimal_units_sold"
	ColCurrentMarginPercentage         = "current_margin_percentage"
	ColSuggestedMarginPercentage       = "suggested_margin_percentage"
	ColOptimalMarginPercentage         = "optimal_margin_percentage"
	ColCurrentNetMargin                = "current_net_margin"
	ColExpectedNetMarginExpectedVolume = "expected_net_margin_expected_volume"
	ColOptimalNetMargin                = "optimal_net_margin"
	ColCurrentRevenue                  = "current_revenue"
	ColExpectedRevenueExpectedVolume   = "expected_revenue_expected_volume"
	ColOptimalRevenue                  = "optimal_revenue"
)

// Columns is the header of the enriched table.
var Columns = []string{
	ColSKU, ColDate, ColProductName, ColProductDescription, ColProductCategory,
	ColUnitCost, ColCurrentPrice, ColMinPrice, ColMaxPrice,
	ColSuggestedPrice, ColGlobalOptimalPrice,
	ColUnitsSold, ColExpectedUnitsSold, ColOptimalUnitsSold,
	ColCurrentMarginPercentage, ColSuggestedMarginPercentage, ColOptimalMarginPercentage,
	ColCurrentNetMargin, ColExpectedNetMarginExpectedVolume, ColOptimalNetMargin,
	ColCurrentRevenue, ColExpectedRevenueExpectedVolume, ColOptimalRevenue,
}

// InputColumns is the header of an observation table.
var InputColumns = []string{
	ColSKU, ColUnitCost, ColCurrentPrice, ColProductCategory,
	ColProductName, ColProductDescription, ColDate,
}

// Record formats r in Columns order. Nil values become empty fields and
// floats use the shortest exact representation.
func (r Row) Record() []string {
	return []string{
		r.SKU,
		formatDate(r),
		r.ProductName,
		r.ProductDescription,
		r.ProductCategory,
		FormatFloat(r.UnitCost),
		FormatFloat(r.CurrentPrice),
		FormatFloat(r.MinPrice),
		FormatFloat(r.MaxPrice),
		FormatOptional(r.SuggestedPrice),
		FormatOptional(r.GlobalOptimalPrice),
		FormatFloat(r.UnitsSold),
		FormatOptional(r.ExpectedUnitsSold),
		FormatOptional(r.OptimalUnitsSold),
		FormatFloat(r.CurrentMarginPercentage),
		FormatOptional(r.SuggestedMarginPercentage),
		FormatOptional(r.OptimalMarginPercentage),
		FormatFloat(r.CurrentNetMargin),
		FormatOptional(r.ExpectedNetMarginExpectedVolume),
		FormatOptional(r.OptimalNetMargin),
		FormatFloat(r.CurrentRevenue),
		FormatOptional(r.ExpectedRevenueExpectedVolume),
		FormatOptional(r.OptimalRevenue),
	}
}

func formatDate(r Row) string {
	if r.Date.IsZero() {
		return ""
	}
	return r.Date.Format(DateLayout)
}

// FormatFloat renders v with the fewest digits that round-trip.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatOptional renders nil as an empty string.
func FormatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return FormatFloat(*v)
}

// SaveToJSON writes the full result, rows and cohort fits, as indented JSON.
func SaveToJSON(result *Result, outputPath string) error {
	if result == nil || len(result.Rows) == 0 {
		return fmt.Errorf("no metrics to save")
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}

	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("write JSON file: %w", err)
	}
	return nil
}
