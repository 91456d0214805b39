package pricing

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// Option configures a Deriver.
type Option func(*Deriver)

// WithSeed makes every Derive call draw from a fresh generator seeded with
// seed, so repeated runs over the same table are identical.
func WithSeed(seed int64) Option {
	return func(d *Deriver) {
		d.seed = seed
		d.rng = nil
	}
}

// WithRand makes Derive draw from r. The generator advances across calls, so
// the caller owns reproducibility.
func WithRand(r *rand.Rand) Option {
	if r == nil {
		panic("pricing: WithRand(nil)")
	}
	return func(d *Deriver) {
		d.rng = r
	}
}

// WithRounding toggles rounding of the volume quantities.
func WithRounding(round bool) Option {
	return func(d *Deriver) {
		d.opts.Round = round
	}
}

// WithConcurrency evaluates up to n cohorts at once.
func WithConcurrency(n int) Option {
	return func(d *Deriver) {
		d.opts.Concurrency = n
	}
}

// WithSteepnessRange sets the uniform interval the steepness factor is drawn from.
func WithSteepnessRange(low, high float64) Option {
	return func(d *Deriver) {
		d.opts.SteepnessLow = low
		d.opts.SteepnessHigh = high
	}
}

// WithMinimizer replaces the bounded minimizer settings.
func WithMinimizer(m Minimizer) Option {
	return func(d *Deriver) {
		d.opts.Minimizer = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Deriver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// Deriver runs the volume, margin and revenue stages over a table of
// observations.
type Deriver struct {
	params map[string]CohortParams
	seed   int64
	rng    *rand.Rand
	opts   VolumeOptions
	logger *slog.Logger
}

// NewDeriver creates a Deriver for the given per-SKU parameters. Rounding is
// on and the seed is DefaultSeed unless overridden.
func NewDeriver(params map[string]CohortParams, opts ...Option) *Deriver {
	d := &Deriver{
		params: params,
		seed:   DefaultSeed,
		opts: VolumeOptions{
			Round:     true,
			Minimizer: DefaultMinimizer(),
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Derive returns the observations enriched with every derived metric, sorted
// by (sku, current_price). Cohorts whose optimizer finds no price keep nil
// values in the dependent columns; invalid cohorts reject the whole table.
func (d *Deriver) Derive(ctx context.Context, observations []Observation) (*Result, error) {
	start := time.Now()

	d.logger.InfoContext(ctx, "starting metrics derivation",
		"observations", len(observations),
		"round", d.opts.Round,
		"concurrency", d.opts.Concurrency,
	)

	rng := d.rng
	if rng == nil {
		rng = rand.New(rand.NewSource(d.seed))
	}

	result, err := DeriveVolumeMetrics(ctx, observations, d.params, rng, d.opts)
	if err != nil {
		d.logger.ErrorContext(ctx, "volume metrics failed", "error", err)
		return nil, fmt.Errorf("derive volume metrics: %w", err)
	}

	for _, c := range result.Cohorts {
		if c.Failed() {
			d.logger.WarnContext(ctx, "optimizer found no price",
				"sku", c.SKU,
				"suggested_failed", c.SuggestedFailed,
				"global_failed", c.GlobalFailed,
			)
		}
	}

	DeriveMarginMetrics(result.Rows)
	DeriveRevenueMetrics(result.Rows)

	d.logger.InfoContext(ctx, "metrics derivation completed",
		"duration", time.Since(start),
		"rows", len(result.Rows),
		"cohorts", len(result.Cohorts),
	)
	return result, nil
}

// Params returns the per-SKU parameters the deriver was built with.
func (d *Deriver) Params() map[string]CohortParams {
	return d.params
}
