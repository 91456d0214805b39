package exporter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"pricecube/internal/pricing"
)

// Sheet names used in workbook output.
const (
	DataSheet     = "data"
	ProductsSheet = "products"
)

func writeRowsXLSX(path string, rows []pricing.Row) error {
	return writeXLSX(path, DataSheet, pricing.Columns, len(rows), func(i int) []interface{} {
		return rowCells(rows[i])
	})
}

func writeProductsXLSX(path string, products []ProductRecord) error {
	return writeXLSX(path, ProductsSheet, ProductColumns, len(products), func(i int) []interface{} {
		p := products[i]
		return []interface{}{p.SKU, p.Name, p.Category, p.UnitCost, p.Description}
	})
}

// writeXLSX streams n rows below a header row into a single-sheet workbook.
func writeXLSX(path, sheet string, headers []string, n int, row func(i int) []interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName(f.GetSheetName(0), sheet)

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("create stream writer: %w", err)
	}

	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := 0; i < n; i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row(i)); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// rowCells lays r out in pricing.Columns order with numbers as numeric cells
// and nulls as blank cells.
func rowCells(r pricing.Row) []interface{} {
	date := ""
	if !r.Date.IsZero() {
		date = r.Date.Format(pricing.DateLayout)
	}
	return []interface{}{
		r.SKU,
		date,
		r.ProductName,
		r.ProductDescription,
		r.ProductCategory,
		r.UnitCost,
		r.CurrentPrice,
		r.MinPrice,
		r.MaxPrice,
		optionalCell(r.SuggestedPrice),
		optionalCell(r.GlobalOptimalPrice),
		r.UnitsSold,
		optionalCell(r.ExpectedUnitsSold),
		optionalCell(r.OptimalUnitsSold),
		r.CurrentMarginPercentage,
		optionalCell(r.SuggestedMarginPercentage),
		optionalCell(r.OptimalMarginPercentage),
		r.CurrentNetMargin,
		optionalCell(r.ExpectedNetMarginExpectedVolume),
		optionalCell(r.OptimalNetMargin),
		r.CurrentRevenue,
		optionalCell(r.ExpectedRevenueExpectedVolume),
		optionalCell(r.OptimalRevenue),
	}
}

// optionalCell avoids boxing a nil pointer, which excelize would print.
func optionalCell(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
