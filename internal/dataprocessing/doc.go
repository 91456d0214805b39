// Package dataprocessing reads observation tables and reshapes enriched rows.
//
// The parser accepts CSV and XLSX input and locates columns by header name,
// so both raw observation tables and previously enriched tables can be read
// back:
//
//	observations, err := dataprocessing.ParseFile("data/data.csv")
//	if err != nil {
//	    return err
//	}
//
// The processor helpers order and bucket enriched rows by date for the
// dashboard views.
package dataprocessing
