package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"pricecube/internal/pricing"
	"pricecube/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

var rowColumns = []string{
	"run_id", "row_index", "sku", "sale_date",
	"product_name", "product_description", "product_category",
	"unit_cost", "current_price", "min_price", "max_price",
	"suggested_price", "global_optimal_price",
	"units_sold", "expected_units_sold", "optimal_units_sold",
	"current_margin_percentage", "suggested_margin_percentage", "optimal_margin_percentage",
	"current_net_margin", "expected_net_margin_expected_volume", "optimal_net_margin",
	"current_revenue", "expected_revenue_expected_volume", "optimal_revenue",
}

var cohortColumns = []string{
	"run_id", "sku", "observations", "unit_cost",
	"max_units", "steepness", "inflection",
	"bound_low", "bound_high", "observed_low", "observed_high",
	"suggested_price", "global_optimal_price",
	"expected_units_sold", "optimal_units_sold",
	"suggested_failed", "global_failed",
}

// Save stores a run with all its rows and cohorts in one transaction.
// Returns ErrDuplicateKey if the run ID exists.
func (s *RunStore) Save(ctx context.Context, run *storage.Run) error {
	if err := run.Validate(); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	summary := run.Summary()
	_, err = tx.Exec(ctx, `
		INSERT INTO pricing_runs (
			id, created_at, source, seed, rounded, row_count, cohort_count, failed_cohorts
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		summary.ID,
		summary.CreatedAt,
		summary.Source,
		summary.Seed,
		summary.Rounded,
		summary.Rows,
		summary.Cohorts,
		summary.FailedCohorts,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run: %w", err)
	}

	rows := make([][]any, len(run.Result.Rows))
	for i, r := range run.Result.Rows {
		rows[i] = []any{
			run.ID, i, r.SKU, nullableDate(r.Date),
			r.ProductName, r.ProductDescription, r.ProductCategory,
			r.UnitCost, r.CurrentPrice, r.MinPrice, r.MaxPrice,
			r.SuggestedPrice, r.GlobalOptimalPrice,
			r.UnitsSold, r.ExpectedUnitsSold, r.OptimalUnitsSold,
			r.CurrentMarginPercentage, r.SuggestedMarginPercentage, r.OptimalMarginPercentage,
			r.CurrentNetMargin, r.ExpectedNetMarginExpectedVolume, r.OptimalNetMargin,
			r.CurrentRevenue, r.ExpectedRevenueExpectedVolume, r.OptimalRevenue,
		}
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"pricing_rows"}, rowColumns, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("copy rows: %w", err)
	}

	cohorts := make([][]any, len(run.Result.Cohorts))
	for i, c := range run.Result.Cohorts {
		cohorts[i] = []any{
			run.ID, c.SKU, c.Observations, c.UnitCost,
			c.Curve.MaxUnits, c.Curve.Steepness, c.Curve.Inflection,
			c.Bounds.Low, c.Bounds.High, c.ObservedRange.Low, c.ObservedRange.High,
			c.SuggestedPrice, c.GlobalOptimalPrice,
			c.ExpectedUnitsSold, c.OptimalUnitsSold,
			c.SuggestedFailed, c.GlobalFailed,
		}
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"pricing_cohorts"}, cohortColumns, pgx.CopyFromRows(cohorts)); err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("duplicate cohort sku: %w", storage.ErrInvalidInput)
		}
		return fmt.Errorf("copy cohorts: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Get retrieves a run with all rows and cohorts. Returns ErrNotFound if not exists.
func (s *RunStore) Get(ctx context.Context, id string) (*storage.Run, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, created_at, source, seed, rounded
		FROM pricing_runs
		WHERE id = $1
	`, id)

	run := &storage.Run{Result: &pricing.Result{}}
	if err := row.Scan(&run.ID, &run.CreatedAt, &run.Source, &run.Seed, &run.Rounded); err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run by id: %w", err)
	}
	run.CreatedAt = run.CreatedAt.UTC()

	var err error
	if run.Result.Rows, err = s.getRows(ctx, id); err != nil {
		return nil, err
	}
	if run.Result.Cohorts, err = s.getCohorts(ctx, id); err != nil {
		return nil, err
	}
	return run, nil
}

// List returns every run summary, newest first.
func (s *RunStore) List(ctx context.Context) ([]storage.RunSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, created_at, source, seed, rounded, row_count, cohort_count, failed_cohorts
		FROM pricing_runs
		ORDER BY created_at DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	result := []storage.RunSummary{}
	for rows.Next() {
		var r storage.RunSummary
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.Source, &r.Seed, &r.Rounded,
			&r.Rows, &r.Cohorts, &r.FailedCohorts); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		r.CreatedAt = r.CreatedAt.UTC()
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return result, nil
}

// Latest returns the newest run. Returns ErrNotFound if the store is empty.
func (s *RunStore) Latest(ctx context.Context) (*storage.Run, error) {
	var id string
	err := s.pool.QueryRow(ctx, `
		SELECT id FROM pricing_runs ORDER BY created_at DESC, id ASC LIMIT 1
	`).Scan(&id)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest run: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *RunStore) getRows(ctx context.Context, runID string) ([]pricing.Row, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT sku, sale_date, product_name, product_description, product_category,
			unit_cost, current_price, min_price, max_price,
			suggested_price, global_optimal_price,
			units_sold, expected_units_sold, optimal_units_sold,
			current_margin_percentage, suggested_margin_percentage, optimal_margin_percentage,
			current_net_margin, expected_net_margin_expected_volume, optimal_net_margin,
			current_revenue, expected_revenue_expected_volume, optimal_revenue
		FROM pricing_rows
		WHERE run_id = $1
		ORDER BY row_index ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("get run rows: %w", err)
	}
	defer rows.Close()

	result := []pricing.Row{}
	for rows.Next() {
		var r pricing.Row
		var date *time.Time
		err := rows.Scan(
			&r.SKU, &date, &r.ProductName, &r.ProductDescription, &r.ProductCategory,
			&r.UnitCost, &r.CurrentPrice, &r.MinPrice, &r.MaxPrice,
			&r.SuggestedPrice, &r.GlobalOptimalPrice,
			&r.UnitsSold, &r.ExpectedUnitsSold, &r.OptimalUnitsSold,
			&r.CurrentMarginPercentage, &r.SuggestedMarginPercentage, &r.OptimalMarginPercentage,
			&r.CurrentNetMargin, &r.ExpectedNetMarginExpectedVolume, &r.OptimalNetMargin,
			&r.CurrentRevenue, &r.ExpectedRevenueExpectedVolume, &r.OptimalRevenue,
		)
		if err != nil {
			return nil, fmt.Errorf("scan pricing row: %w", err)
		}
		if date != nil {
			r.Date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pricing rows: %w", err)
	}
	return result, nil
}

func (s *RunStore) getCohorts(ctx context.Context, runID string) ([]pricing.CohortSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT sku, observations, unit_cost, max_units, steepness, inflection,
			bound_low, bound_high, observed_low, observed_high,
			suggested_price, global_optimal_price, expected_units_sold, optimal_units_sold,
			suggested_failed, global_failed
		FROM pricing_cohorts
		WHERE run_id = $1
		ORDER BY sku ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("get run cohorts: %w", err)
	}
	defer rows.Close()

	result := []pricing.CohortSummary{}
	for rows.Next() {
		var c pricing.CohortSummary
		err := rows.Scan(
			&c.SKU, &c.Observations, &c.UnitCost,
			&c.Curve.MaxUnits, &c.Curve.Steepness, &c.Curve.Inflection,
			&c.Bounds.Low, &c.Bounds.High, &c.ObservedRange.Low, &c.ObservedRange.High,
			&c.SuggestedPrice, &c.GlobalOptimalPrice, &c.ExpectedUnitsSold, &c.OptimalUnitsSold,
			&c.SuggestedFailed, &c.GlobalFailed,
		)
		if err != nil {
			return nil, fmt.Errorf("scan cohort row: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cohorts: %w", err)
	}
	return result, nil
}

func nullableDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
