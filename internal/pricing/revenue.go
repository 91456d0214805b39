package pricing

// DeriveRevenueMetrics fills the revenue columns in place.
func DeriveRevenueMetrics(rows []Row) {
	for i := range rows {
		r := &rows[i]
		r.CurrentRevenue = r.CurrentPrice * r.UnitsSold
		r.ExpectedRevenueExpectedVolume = product(r.SuggestedPrice, r.ExpectedUnitsSold)
		r.OptimalRevenue = product(r.GlobalOptimalPrice, r.OptimalUnitsSold)
	}
}

func product(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	return ptr(*a * *b)
}
