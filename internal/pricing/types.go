package pricing

import (
	"math"
	"time"
)

// Default steepness draw interval. The drawn value is divided by the cohort's
// observed price spread.
const (
	DefaultSteepnessLow  = 5.0
	DefaultSteepnessHigh = 10.0

	// DefaultSeed reproduces the reference dataset.
	DefaultSeed int64 = 42
)

// Observation is a single simulated sale event.
type Observation struct {
	SKU                string    `json:"sku"`
	Date               time.Time `json:"date"`
	ProductName        string    `json:"product_name"`
	ProductDescription string    `json:"product_description"`
	ProductCategory    string    `json:"product_category"`
	UnitCost           float64   `json:"unit_cost"`
	CurrentPrice       float64   `json:"current_price"`
}

// PriceBounds is a closed price interval [Low, High].
type PriceBounds struct {
	Low  float64 `json:"low" yaml:"low"`
	High float64 `json:"high" yaml:"high"`
}

// IsValid reports whether the interval is finite and non-empty.
func (b PriceBounds) IsValid() bool {
	return isFinite(b.Low) && isFinite(b.High) && b.Low < b.High
}

// Contains reports whether p lies inside the closed interval.
func (b PriceBounds) Contains(p float64) bool {
	return p >= b.Low && p <= b.High
}

// CohortParams holds the externally configured inputs for one SKU.
type CohortParams struct {
	MaxUnits float64     `json:"max_units" yaml:"max_units"` // L
	Bounds   PriceBounds `json:"bounds" yaml:"bounds"`       // pricing constraint
}

// Row is an observation enriched with every derived metric. Fields that
// depend on an optimizer result are nil when the optimizer found no price.
type Row struct {
	Observation

	MinPrice float64 `json:"min_price"`
	MaxPrice float64 `json:"max_price"`

	SuggestedPrice     *float64 `json:"suggested_price"`
	GlobalOptimalPrice *float64 `json:"global_optimal_price"`

	UnitsSold         float64  `json:"units_sold"`
	ExpectedUnitsSold *float64 `json:"expected_units_sold"`
	OptimalUnitsSold  *float64 `json:"optimal_units_sold"`

	CurrentMarginPercentage   float64  `json:"current_margin_percentage"`
	SuggestedMarginPercentage *float64 `json:"suggested_margin_percentage"`
	OptimalMarginPercentage   *float64 `json:"optimal_margin_percentage"`

	CurrentNetMargin                float64  `json:"current_net_margin"`
	ExpectedNetMarginExpectedVolume *float64 `json:"expected_net_margin_expected_volume"`
	OptimalNetMargin                *float64 `json:"optimal_net_margin"`

	CurrentRevenue                float64  `json:"current_revenue"`
	ExpectedRevenueExpectedVolume *float64 `json:"expected_revenue_expected_volume"`
	OptimalRevenue                *float64 `json:"optimal_revenue"`
}

// Costs is the total unit cost of the units sold in this row.
func (r Row) Costs() float64 {
	return r.UnitCost * r.UnitsSold
}

// CohortSummary records the fitted curve and optimizer outcome for one SKU.
type CohortSummary struct {
	SKU                string      `json:"sku"`
	Observations       int         `json:"observations"`
	UnitCost           float64     `json:"unit_cost"`
	Curve              Curve       `json:"curve"`
	Bounds             PriceBounds `json:"bounds"`
	ObservedRange      PriceBounds `json:"observed_range"`
	SuggestedPrice     *float64    `json:"suggested_price"`
	GlobalOptimalPrice *float64    `json:"global_optimal_price"`
	ExpectedUnitsSold  *float64    `json:"expected_units_sold"`
	OptimalUnitsSold   *float64    `json:"optimal_units_sold"`
	SuggestedFailed    bool        `json:"suggested_failed"`
	GlobalFailed       bool        `json:"global_failed"`
}

// Failed reports whether either optimization produced no price.
func (s CohortSummary) Failed() bool {
	return s.SuggestedFailed || s.GlobalFailed
}

// Result is the enriched table plus per-cohort fit details.
type Result struct {
	Rows    []Row           `json:"rows"`
	Cohorts []CohortSummary `json:"cohorts"`
}

// Cohort returns the summary for sku.
func (r *Result) Cohort(sku string) (CohortSummary, bool) {
	for _, c := range r.Cohorts {
		if c.SKU == sku {
			return c, true
		}
	}
	return CohortSummary{}, false
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func ptr(v float64) *float64 {
	return &v
}
