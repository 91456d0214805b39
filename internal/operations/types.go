package operations

import (
	"pricecube/internal/exporter"
	"pricecube/internal/pricing"
	"pricecube/internal/storage"
)

// Step identifiers of the pricing pipeline, in execution order.
const (
	StepSource  = "source"
	StepDerive  = "derive"
	StepExport  = "export"
	StepPersist = "persist"
)

// Request sources.
const (
	SourceGenerate = "generate"
	SourceUpload   = "upload"
	SourceFile     = "file"
)

// EventOperationSnapshot is the hub event type carrying an OperationSnapshot.
const EventOperationSnapshot = "operation:snapshot"

// Request describes one pipeline run.
type Request struct {
	// ID becomes the run id. A random UUID is assigned when empty.
	ID string

	Source string
	Seed   int64
	Round  bool

	// Rows is the number of generated observations (generate source).
	Rows int
	// InputPath is the CSV or XLSX table read by the file source.
	InputPath string
	// Observations are the rows of the upload source.
	Observations []pricing.Observation

	// Formats lists the tables written by the export step. No formats
	// skips the step.
	Formats []exporter.Format
}

// Validate checks that the request carries what its source needs.
func (r Request) Validate() error {
	switch r.Source {
	case SourceGenerate:
		if r.Rows <= 0 {
			return NewValidationError(StepSource, "rows must be positive")
		}
	case SourceUpload:
		if len(r.Observations) == 0 {
			return NewValidationError(StepSource, "upload carries no observations")
		}
	case SourceFile:
		if r.InputPath == "" {
			return NewValidationError(StepSource, "input path is required")
		}
	default:
		return NewValidationError(StepSource, "unknown source "+r.Source)
	}
	return nil
}

// StoredSource is the run source recorded in storage.
func (r Request) StoredSource() string {
	switch r.Source {
	case SourceUpload:
		return storage.SourceUpload
	case SourceFile:
		return storage.SourceFile
	default:
		return storage.SourceGenerated
	}
}
