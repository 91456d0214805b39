// Package exporter writes pricing tables to disk.
//
// CSVWriter is the low level CSV writer with optional UTF-8 BOM and a
// streaming mode for large tables. TableExporter builds on it to write the
// enriched data table and the derived products table as CSV, XLSX
// (excelize), Parquet (parquet-go) or JSON.
//
// Example usage:
//
//	e := exporter.NewTableExporter(outputDir, logger, metrics)
//	files, err := e.ExportResult(ctx, result, "data", "products",
//		[]exporter.Format{exporter.FormatCSV, exporter.FormatParquet})
package exporter
