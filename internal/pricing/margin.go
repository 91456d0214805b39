package pricing

// DeriveMarginMetrics fills the margin percentage and net margin columns in
// place. Columns that depend on a missing optimizer price stay nil.
func DeriveMarginMetrics(rows []Row) {
	for i := range rows {
		r := &rows[i]
		cost := r.UnitCost

		r.CurrentMarginPercentage = (r.CurrentPrice - cost) / cost
		r.SuggestedMarginPercentage = marginFraction(r.SuggestedPrice, cost)
		r.OptimalMarginPercentage = marginFraction(r.GlobalOptimalPrice, cost)

		r.CurrentNetMargin = (r.CurrentPrice - cost) * r.UnitsSold
		r.ExpectedNetMarginExpectedVolume = netMargin(r.SuggestedPrice, cost, r.ExpectedUnitsSold)
		r.OptimalNetMargin = netMargin(r.GlobalOptimalPrice, cost, r.OptimalUnitsSold)
	}
}

func marginFraction(price *float64, cost float64) *float64 {
	if price == nil {
		return nil
	}
	return ptr((*price - cost) / cost)
}

func netMargin(price *float64, cost float64, units *float64) *float64 {
	if price == nil || units == nil {
		return nil
	}
	return ptr((*price - cost) * *units)
}
