package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"golang.org/x/sync/errgroup"
)

// VolumeOptions tunes the volume stage.
type VolumeOptions struct {
	// Round rounds the three volume quantities to whole units, half to even.
	Round bool
	// Concurrency bounds how many cohorts are evaluated at once. Values
	// below 2 evaluate cohorts sequentially.
	Concurrency int
	// SteepnessLow and SteepnessHigh bound the uniform steepness draw.
	// Both zero selects the defaults.
	SteepnessLow  float64
	SteepnessHigh float64
	Minimizer     Minimizer
}

func (o VolumeOptions) steepnessRange() (float64, float64) {
	if o.SteepnessLow == 0 && o.SteepnessHigh == 0 {
		return DefaultSteepnessLow, DefaultSteepnessHigh
	}
	return o.SteepnessLow, o.SteepnessHigh
}

type cohortResult struct {
	rows    []Row
	summary CohortSummary
}

// DeriveVolumeMetrics fits a logistic demand curve to every SKU cohort and
// appends units sold, optimal prices and the expected volumes at those prices.
//
// Steepness factors are drawn from rng once per cohort in ascending SKU order
// before any cohort is evaluated, so the output does not depend on
// Concurrency. Rows come back sorted by (sku, current_price).
func DeriveVolumeMetrics(ctx context.Context, observations []Observation, params map[string]CohortParams, rng *rand.Rand, opts VolumeOptions) (*Result, error) {
	if rng == nil {
		return nil, errors.New("volume metrics require a random generator")
	}
	low, high := opts.steepnessRange()
	if !isFinite(low) || !isFinite(high) || low <= 0 || high < low {
		return nil, &ValidationError{
			Field:   "steepness_range",
			Message: "steepness range must be positive with low <= high",
			Value:   []float64{low, high},
		}
	}

	cohorts := Partition(observations)
	if err := ValidateObservations(cohorts, params); err != nil {
		return nil, err
	}

	draws := make([]float64, len(cohorts))
	for i := range cohorts {
		draws[i] = low + (high-low)*rng.Float64()
	}

	// Zero-valued fields fall back to the defaults inside Minimize.
	minimizer := opts.Minimizer

	results := make([]cohortResult, len(cohorts))
	if opts.Concurrency > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Concurrency)
		for i := range cohorts {
			i := i
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i] = deriveCohortVolume(cohorts[i], params[cohorts[i].SKU], draws[i], minimizer, opts.Round)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("derive cohort volumes: %w", err)
		}
	} else {
		for i := range cohorts {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("derive cohort volumes: %w", err)
			}
			results[i] = deriveCohortVolume(cohorts[i], params[cohorts[i].SKU], draws[i], minimizer, opts.Round)
		}
	}

	out := &Result{
		Rows:    make([]Row, 0, len(observations)),
		Cohorts: make([]CohortSummary, 0, len(cohorts)),
	}
	for _, r := range results {
		out.Rows = append(out.Rows, r.rows...)
		out.Cohorts = append(out.Cohorts, r.summary)
	}
	return out, nil
}

// deriveCohortVolume is the pure per-cohort step. The cohort must already be
// validated.
func deriveCohortVolume(c Cohort, p CohortParams, draw float64, m Minimizer, round bool) cohortResult {
	prices := c.Prices()
	cost := c.Cost()
	curve := fitCurve(prices, p.MaxUnits, draw)
	observed := PriceBounds{Low: prices[0], High: prices[len(prices)-1]}

	units := curve.Volumes(prices)

	summary := CohortSummary{
		SKU:           c.SKU,
		Observations:  len(prices),
		UnitCost:      cost,
		Curve:         curve,
		Bounds:        p.Bounds,
		ObservedRange: observed,
	}

	if price, ok := m.OptimalPrice(cost, curve, p.Bounds); ok {
		summary.SuggestedPrice = ptr(price)
		summary.ExpectedUnitsSold = ptr(curve.Volume(price))
	} else {
		summary.SuggestedFailed = true
	}
	if price, ok := m.OptimalPrice(cost, curve, observed); ok {
		summary.GlobalOptimalPrice = ptr(price)
		summary.OptimalUnitsSold = ptr(curve.Volume(price))
	} else {
		summary.GlobalFailed = true
	}

	if round {
		for i := range units {
			units[i] = math.RoundToEven(units[i])
		}
		summary.ExpectedUnitsSold = roundPtr(summary.ExpectedUnitsSold)
		summary.OptimalUnitsSold = roundPtr(summary.OptimalUnitsSold)
	}

	rows := make([]Row, len(c.Observations))
	for i, o := range c.Observations {
		rows[i] = Row{
			Observation:        o,
			MinPrice:           p.Bounds.Low,
			MaxPrice:           p.Bounds.High,
			SuggestedPrice:     copyPtr(summary.SuggestedPrice),
			GlobalOptimalPrice: copyPtr(summary.GlobalOptimalPrice),
			UnitsSold:          units[i],
			ExpectedUnitsSold:  copyPtr(summary.ExpectedUnitsSold),
			OptimalUnitsSold:   copyPtr(summary.OptimalUnitsSold),
		}
	}
	return cohortResult{rows: rows, summary: summary}
}

func roundPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return ptr(math.RoundToEven(*v))
}

func copyPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return ptr(*v)
}
