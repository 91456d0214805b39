// Package shared groups helpers that are not tied to one layer. Its testutil
// subpackage captures slog output so tests can assert on what a component
// logged.
package shared
