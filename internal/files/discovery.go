package files

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrNoTables is returned when a directory holds no readable table.
var ErrNoTables = errors.New("no observation tables found")

// TableExtensions are the file extensions the loader understands.
var TableExtensions = []string{".csv", ".xlsx"}

// FileInfo describes a discovered table.
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery resolves table paths relative to a base directory.
type Discovery struct {
	basePath string
	exclude  map[string]bool
	logger   *slog.Logger
}

// NewDiscovery creates a discovery rooted at basePath.
func NewDiscovery(basePath string, logger *slog.Logger) *Discovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{basePath: basePath, logger: logger.With(slog.String("component", "files"))}
}

func (d *Discovery) abs(path string) string {
	if path == "" {
		return d.basePath
	}
	if filepath.IsAbs(path) || d.basePath == "" {
		return path
	}
	return filepath.Join(d.basePath, path)
}

// WithExclude skips tables whose name without extension matches one of
// stems, such as the products summary written next to the data table.
func (d *Discovery) WithExclude(stems ...string) *Discovery {
	if d.exclude == nil {
		d.exclude = make(map[string]bool, len(stems))
	}
	for _, s := range stems {
		d.exclude[strings.ToLower(s)] = true
	}
	return d
}

func (d *Discovery) excluded(name string) bool {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return d.exclude[strings.ToLower(stem)]
}

// IsTable reports whether name carries a supported table extension.
func IsTable(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range TableExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// FindTables lists CSV and XLSX files in dir, oldest first. Hidden files
// and Excel lock files (~$name.xlsx) are skipped.
func (d *Discovery) FindTables(dir string) ([]FileInfo, error) {
	fullPath := d.abs(dir)
	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var tables []FileInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") || !IsTable(name) || d.excluded(name) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			d.logger.Warn("skipping unreadable file",
				slog.String("file", name),
				slog.String("error", err.Error()))
			continue
		}
		tables = append(tables, FileInfo{
			Path:    filepath.Join(fullPath, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.SliceStable(tables, func(i, j int) bool {
		if tables[i].ModTime.Equal(tables[j].ModTime) {
			return tables[i].Name < tables[j].Name
		}
		return tables[i].ModTime.Before(tables[j].ModTime)
	})
	return tables, nil
}

// GetLatestFile returns the most recently modified file from a list.
func GetLatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}
	latest := files[0]
	for _, file := range files[1:] {
		if !file.ModTime.Before(latest.ModTime) {
			latest = file
		}
	}
	return latest, true
}

// Resolve turns path into a single table. A file path is checked and
// returned; a directory (or "" for the base directory) yields its newest
// table.
func (d *Discovery) Resolve(path string) (string, error) {
	full := d.abs(path)
	info, err := os.Stat(full)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", full, err)
	}

	if !info.IsDir() {
		if !IsTable(full) {
			return "", fmt.Errorf("unsupported table %s: expected one of %s",
				full, strings.Join(TableExtensions, ", "))
		}
		return full, nil
	}

	tables, err := d.FindTables(full)
	if err != nil {
		return "", err
	}
	latest, ok := GetLatestFile(tables)
	if !ok {
		return "", fmt.Errorf("%w in %s", ErrNoTables, full)
	}
	d.logger.Info("resolved input table",
		slog.String("dir", full),
		slog.String("file", latest.Name),
		slog.Int("candidates", len(tables)))
	return latest.Path, nil
}
