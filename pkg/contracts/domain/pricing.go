// Package domain holds the view models the pricing API returns.
package domain

import "time"

// Point is one point of a plotted series.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SkuModal is the per-SKU chart: the fitted demand curve and the net margin
// it implies, evaluated over the optimization bounds.
type SkuModal struct {
	SKU  string `json:"sku"`
	Name string `json:"name"`

	// MinValue and MaxValue are the bounds of the constrained search, with
	// the net margin at those prices.
	MinValue Point `json:"min_value"`
	MaxValue Point `json:"max_value"`

	PriceX     []float64 `json:"price_x"`
	VolumeY    []float64 `json:"volume_y"`
	NetMarginY []float64 `json:"net_margin_y"`

	// Nil when the optimizer found no price.
	SuggestedOptimal *Point `json:"suggested_optimal"`
	GlobalOptimal    *Point `json:"global_optimal"`

	Description string `json:"description"`
}

// OptimizationRecap compares the observed totals of a run with the totals
// expected at the suggested prices.
type OptimizationRecap struct {
	CurrentRevenue    float64 `json:"current_revenue"`
	ExpectedRevenue   float64 `json:"expected_revenue"`
	CurrentNetMargin  float64 `json:"current_net_margin"`
	ExpectedNetMargin float64 `json:"expected_net_margin"`
}

// RevenueUplift is ExpectedRevenue relative to CurrentRevenue, 0 when there
// is no current revenue.
func (r OptimizationRecap) RevenueUplift() float64 {
	if r.CurrentRevenue == 0 {
		return 0
	}
	return r.ExpectedRevenue/r.CurrentRevenue - 1
}

// DashboardPlots are per-day totals in ascending date order. All slices
// have the length of Dates.
type DashboardPlots struct {
	Dates             []time.Time `json:"dates"`
	Costs             []float64   `json:"costs"`
	CurrentRevenue    []float64   `json:"current_revenue"`
	ExpectedRevenue   []float64   `json:"expected_revenue"`
	CurrentNetMargin  []float64   `json:"current_net_margin"`
	ExpectedNetMargin []float64   `json:"expected_net_margin"`
}

// RunInfo describes a stored run.
type RunInfo struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	Source        string    `json:"source"`
	Seed          int64     `json:"seed"`
	Rounded       bool      `json:"rounded"`
	Rows          int       `json:"rows"`
	Cohorts       int       `json:"cohorts"`
	FailedCohorts int       `json:"failed_cohorts"`
	Files         []string  `json:"files,omitempty"`
}
