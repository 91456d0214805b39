package storage

import (
	"context"
	"time"

	"pricecube/internal/pricing"
)

// Run sources.
const (
	SourceGenerated = "generated"
	SourceUpload    = "upload"
	SourceFile      = "file"
)

// Run is one derivation together with the settings that produced it.
type Run struct {
	ID        string
	CreatedAt time.Time
	Source    string
	Seed      int64
	Rounded   bool
	Result    *pricing.Result
}

// RunSummary describes a run without its rows.
type RunSummary struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	Source        string    `json:"source"`
	Seed          int64     `json:"seed"`
	Rounded       bool      `json:"rounded"`
	Rows          int       `json:"rows"`
	Cohorts       int       `json:"cohorts"`
	FailedCohorts int       `json:"failed_cohorts"`
}

// Summary returns the row-less description of r.
func (r *Run) Summary() RunSummary {
	s := RunSummary{
		ID:        r.ID,
		CreatedAt: r.CreatedAt,
		Source:    r.Source,
		Seed:      r.Seed,
		Rounded:   r.Rounded,
	}
	if r.Result != nil {
		s.Rows = len(r.Result.Rows)
		s.Cohorts = len(r.Result.Cohorts)
		for _, c := range r.Result.Cohorts {
			if c.Failed() {
				s.FailedCohorts++
			}
		}
	}
	return s
}

// Validate checks the fields every store requires.
func (r *Run) Validate() error {
	if r == nil || r.ID == "" || r.Result == nil {
		return ErrInvalidInput
	}
	return nil
}

// RunStore persists derived pricing runs.
type RunStore interface {
	// Save stores a new run. Returns ErrDuplicateKey if the ID exists.
	Save(ctx context.Context, run *Run) error

	// Get retrieves a run with all rows and cohorts. Returns ErrNotFound if not exists.
	Get(ctx context.Context, id string) (*Run, error)

	// List returns every run, newest first.
	List(ctx context.Context) ([]RunSummary, error)

	// Latest returns the newest run. Returns ErrNotFound if the store is empty.
	Latest(ctx context.Context) (*Run, error)
}
