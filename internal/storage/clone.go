package storage

import "pricecube/internal/pricing"

// Clone returns a deep copy of r, sharing no pointers with it.
func (r *Run) Clone() *Run {
	if r == nil {
		return nil
	}
	out := *r
	out.Result = cloneResult(r.Result)
	return &out
}

func cloneResult(res *pricing.Result) *pricing.Result {
	if res == nil {
		return nil
	}
	out := &pricing.Result{
		Rows:    make([]pricing.Row, len(res.Rows)),
		Cohorts: make([]pricing.CohortSummary, len(res.Cohorts)),
	}
	for i, row := range res.Rows {
		row.SuggestedPrice = clonePtr(row.SuggestedPrice)
		row.GlobalOptimalPrice = clonePtr(row.GlobalOptimalPrice)
		row.ExpectedUnitsSold = clonePtr(row.ExpectedUnitsSold)
		row.OptimalUnitsSold = clonePtr(row.OptimalUnitsSold)
		row.SuggestedMarginPercentage = clonePtr(row.SuggestedMarginPercentage)
		row.OptimalMarginPercentage = clonePtr(row.OptimalMarginPercentage)
		row.ExpectedNetMarginExpectedVolume = clonePtr(row.ExpectedNetMarginExpectedVolume)
		row.OptimalNetMargin = clonePtr(row.OptimalNetMargin)
		row.ExpectedRevenueExpectedVolume = clonePtr(row.ExpectedRevenueExpectedVolume)
		row.OptimalRevenue = clonePtr(row.OptimalRevenue)
		out.Rows[i] = row
	}
	for i, c := range res.Cohorts {
		c.SuggestedPrice = clonePtr(c.SuggestedPrice)
		c.GlobalOptimalPrice = clonePtr(c.GlobalOptimalPrice)
		c.ExpectedUnitsSold = clonePtr(c.ExpectedUnitsSold)
		c.OptimalUnitsSold = clonePtr(c.OptimalUnitsSold)
		out.Cohorts[i] = c
	}
	return out
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
