// Package files locates observation tables on disk.
//
// The pricing report accepts either a single table or a directory. When given
// a directory, Discovery picks the most recently modified CSV or XLSX file in
// it, which is how the generator's data directory is normally consumed:
//
//	discovery := files.NewDiscovery(paths.DataDir, logger)
//	table, err := discovery.Resolve("")
package files
