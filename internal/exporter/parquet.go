package exporter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"pricecube/internal/pricing"
)

const parquetParallelism = 4

// RowParquet is the Parquet layout of an enriched row. Optimizer-derived
// columns are OPTIONAL and hold null when no price was found.
type RowParquet struct {
	SKU                             string   `parquet:"name=sku, type=BYTE_ARRAY, convertedtype=UTF8"`
	Date                            string   `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8"`
	ProductName                     string   `parquet:"name=product_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	ProductDescription              string   `parquet:"name=product_description, type=BYTE_ARRAY, convertedtype=UTF8"`
	ProductCategory                 string   `parquet:"name=product_category, type=BYTE_ARRAY, convertedtype=UTF8"`
	UnitCost                        float64  `parquet:"name=unit_cost, type=DOUBLE"`
	CurrentPrice                    float64  `parquet:"name=current_price, type=DOUBLE"`
	MinPrice                        float64  `parquet:"name=min_price, type=DOUBLE"`
	MaxPrice                        float64  `parquet:"name=max_price, type=DOUBLE"`
	SuggestedPrice                  *float64 `parquet:"name=suggested_price, type=DOUBLE, repetitiontype=OPTIONAL"`
	GlobalOptimalPrice              *float64 `parquet:"name=global_optimal_price, type=DOUBLE, repetitiontype=OPTIONAL"`
	UnitsSold                       float64  `parquet:"name=units_sold, type=DOUBLE"`
	ExpectedUnitsSold               *float64 `parquet:"name=expected_units_sold, type=DOUBLE, repetitiontype=OPTIONAL"`
	OptimalUnitsSold                *float64 `parquet:"name=optimal_units_sold, type=DOUBLE, repetitiontype=OPTIONAL"`
	CurrentMarginPercentage         float64  `parquet:"name=current_margin_percentage, type=DOUBLE"`
	SuggestedMarginPercentage       *float64 `parquet:"name=suggested_margin_percentage, type=DOUBLE, repetitiontype=OPTIONAL"`
	OptimalMarginPercentage         *float64 `parquet:"name=optimal_margin_percentage, type=DOUBLE, repetitiontype=OPTIONAL"`
	CurrentNetMargin                float64  `parquet:"name=current_net_margin, type=DOUBLE"`
	ExpectedNetMarginExpectedVolume *float64 `parquet:"name=expected_net_margin_expected_volume, type=DOUBLE, repetitiontype=OPTIONAL"`
	OptimalNetMargin                *float64 `parquet:"name=optimal_net_margin, type=DOUBLE, repetitiontype=OPTIONAL"`
	CurrentRevenue                  float64  `parquet:"name=current_revenue, type=DOUBLE"`
	ExpectedRevenueExpectedVolume   *float64 `parquet:"name=expected_revenue_expected_volume, type=DOUBLE, repetitiontype=OPTIONAL"`
	OptimalRevenue                  *float64 `parquet:"name=optimal_revenue, type=DOUBLE, repetitiontype=OPTIONAL"`
}

// ProductParquet is the Parquet layout of a products table line.
type ProductParquet struct {
	SKU         string  `parquet:"name=sku, type=BYTE_ARRAY, convertedtype=UTF8"`
	Name        string  `parquet:"name=product_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Category    string  `parquet:"name=product_category, type=BYTE_ARRAY, convertedtype=UTF8"`
	UnitCost    float64 `parquet:"name=unit_cost, type=DOUBLE"`
	Description string  `parquet:"name=product_description, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// NewRowParquet converts r to its Parquet layout.
func NewRowParquet(r pricing.Row) RowParquet {
	date := ""
	if !r.Date.IsZero() {
		date = r.Date.Format(pricing.DateLayout)
	}
	return RowParquet{
		SKU:                             r.SKU,
		Date:                            date,
		ProductName:                     r.ProductName,
		ProductDescription:              r.ProductDescription,
		ProductCategory:                 r.ProductCategory,
		UnitCost:                        r.UnitCost,
		CurrentPrice:                    r.CurrentPrice,
		MinPrice:                        r.MinPrice,
		MaxPrice:                        r.MaxPrice,
		SuggestedPrice:                  r.SuggestedPrice,
		GlobalOptimalPrice:              r.GlobalOptimalPrice,
		UnitsSold:                       r.UnitsSold,
		ExpectedUnitsSold:               r.ExpectedUnitsSold,
		OptimalUnitsSold:                r.OptimalUnitsSold,
		CurrentMarginPercentage:         r.CurrentMarginPercentage,
		SuggestedMarginPercentage:       r.SuggestedMarginPercentage,
		OptimalMarginPercentage:         r.OptimalMarginPercentage,
		CurrentNetMargin:                r.CurrentNetMargin,
		ExpectedNetMarginExpectedVolume: r.ExpectedNetMarginExpectedVolume,
		OptimalNetMargin:                r.OptimalNetMargin,
		CurrentRevenue:                  r.CurrentRevenue,
		ExpectedRevenueExpectedVolume:   r.ExpectedRevenueExpectedVolume,
		OptimalRevenue:                  r.OptimalRevenue,
	}
}

func writeRowsParquet(path string, rows []pricing.Row) error {
	return writeParquet(path, new(RowParquet), len(rows), func(i int) interface{} {
		return NewRowParquet(rows[i])
	})
}

func writeProductsParquet(path string, products []ProductRecord) error {
	return writeParquet(path, new(ProductParquet), len(products), func(i int) interface{} {
		p := products[i]
		return ProductParquet{
			SKU:         p.SKU,
			Name:        p.Name,
			Category:    p.Category,
			UnitCost:    p.UnitCost,
			Description: p.Description,
		}
	})
}

func writeParquet(path string, schema interface{}, n int, row func(i int) interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("create parquet file: %w", err)
	}

	pw, err := writer.NewParquetWriter(fw, schema, parquetParallelism)
	if err != nil {
		fw.Close()
		return fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i := 0; i < n; i++ {
		if err := pw.Write(row(i)); err != nil {
			pw.WriteStop()
			fw.Close()
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return fmt.Errorf("finish parquet file: %w", err)
	}
	return fw.Close()
}
