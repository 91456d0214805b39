// Package pricing derives simulated volume, margin and revenue metrics for a
// table of price observations.
//
// Every SKU forms a cohort. For each cohort a logistic demand curve
//
//	units(p) = L / (1 + exp(k * (p - p0)))
//
// is fitted, where L is the configured maximum volume for the SKU, p0 is the
// median observed price and k is a factor drawn uniformly from [5, 10]
// divided by the observed price spread. The price maximizing
// margin fraction times volume is then searched with a bounded Brent
// minimizer twice: once inside the SKU's configured pricing constraint
// (suggested price) and once inside its observed price range (global
// optimal price).
//
// # Stages
//
// The Deriver runs three stages in a fixed order:
//
//  1. Volume: units sold at every historical price, suggested and global
//     optimal prices, and the volumes expected at those prices.
//  2. Margin: margin percentages and net margins for current, suggested
//     and optimal prices.
//  3. Revenue: current, expected and optimal revenue.
//
// When the minimizer cannot produce a price for a cohort, the columns that
// depend on it are nil for that cohort only. Cohorts that make the metrics
// undefined (no rows, non-positive or mixed unit cost, zero price spread,
// missing parameters) reject the whole table with an error that matches
// ErrInvalidCohortData.
//
// # Reproducibility
//
// The steepness draw is the only random input. It is taken from an explicit
// *rand.Rand, one draw per cohort in ascending SKU order, so the output for a
// given seed is identical across runs and across concurrency settings.
//
// # Usage
//
//	deriver := pricing.NewDeriver(params,
//	    pricing.WithSeed(42),
//	    pricing.WithRounding(true),
//	    pricing.WithLogger(logger),
//	)
//	result, err := deriver.Derive(ctx, observations)
//	if err != nil {
//	    return err
//	}
//	for _, row := range result.Rows {
//	    fmt.Println(row.Record())
//	}
package pricing
