// Package storagetest holds fixtures shared by the RunStore test suites.
package storagetest

import (
	"time"

	"pricecube/internal/pricing"
	"pricecube/internal/storage"
)

func f(v float64) *float64 { return &v }

// SampleRun builds a two-cohort run. The second cohort failed to optimize,
// so its optimizer-derived fields are nil.
func SampleRun(id string, createdAt time.Time) *storage.Run {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

	ok := pricing.Row{
		Observation: pricing.Observation{
			SKU: "A1", Date: day(2), ProductName: "Alpha", ProductDescription: "first",
			ProductCategory: "Test", UnitCost: 50, CurrentPrice: 60,
		},
		MinPrice: 55, MaxPrice: 90,
		SuggestedPrice: f(72.5), GlobalOptimalPrice: f(75.25),
		UnitsSold: 81, ExpectedUnitsSold: f(52), OptimalUnitsSold: f(47),
		CurrentMarginPercentage: 0.2, SuggestedMarginPercentage: f(0.45), OptimalMarginPercentage: f(0.505),
		CurrentNetMargin: 810, ExpectedNetMarginExpectedVolume: f(1170), OptimalNetMargin: f(1186.75),
		CurrentRevenue: 4860, ExpectedRevenueExpectedVolume: f(3770), OptimalRevenue: f(3536.75),
	}
	failed := pricing.Row{
		Observation: pricing.Observation{
			SKU: "B2", Date: day(1), ProductName: "Beta", ProductDescription: "second",
			ProductCategory: "Test", UnitCost: 100, CurrentPrice: 90,
		},
		MinPrice: 20, MaxPrice: 95,
		UnitsSold:               12,
		CurrentMarginPercentage: -0.1,
		CurrentNetMargin:        -120,
		CurrentRevenue:          1080,
	}

	return &storage.Run{
		ID:        id,
		CreatedAt: createdAt,
		Source:    storage.SourceGenerated,
		Seed:      42,
		Rounded:   true,
		Result: &pricing.Result{
			Rows: []pricing.Row{ok, failed},
			Cohorts: []pricing.CohortSummary{
				{
					SKU: "A1", Observations: 1, UnitCost: 50,
					Curve:          pricing.Curve{MaxUnits: 100, Steepness: 0.3, Inflection: 70},
					Bounds:         pricing.PriceBounds{Low: 55, High: 90},
					ObservedRange:  pricing.PriceBounds{Low: 60, High: 80},
					SuggestedPrice: f(72.5), GlobalOptimalPrice: f(75.25),
					ExpectedUnitsSold: f(52), OptimalUnitsSold: f(47),
				},
				{
					SKU: "B2", Observations: 1, UnitCost: 100,
					Curve:           pricing.Curve{MaxUnits: 40, Steepness: 0.5, Inflection: 85},
					Bounds:          pricing.PriceBounds{Low: 20, High: 95},
					ObservedRange:   pricing.PriceBounds{Low: 80, High: 90},
					SuggestedFailed: true, GlobalFailed: true,
				},
			},
		},
	}
}
