package pricing

import "sort"

// Cohort is every observation of one SKU, ordered by ascending price.
type Cohort struct {
	SKU          string
	Observations []Observation
}

// Prices returns the cohort's historical prices in ascending order.
func (c Cohort) Prices() []float64 {
	prices := make([]float64, len(c.Observations))
	for i, o := range c.Observations {
		prices[i] = o.CurrentPrice
	}
	return prices
}

// Cost is the cohort's unit cost, read from its first observation.
func (c Cohort) Cost() float64 {
	if len(c.Observations) == 0 {
		return 0
	}
	return c.Observations[0].UnitCost
}

// Partition groups observations by SKU. Cohorts come back in ascending SKU
// order and each cohort is stably sorted by current price, so concatenating
// them yields the table sorted by (sku, current_price).
func Partition(observations []Observation) []Cohort {
	groups := make(map[string][]Observation)
	for _, o := range observations {
		groups[o.SKU] = append(groups[o.SKU], o)
	}

	skus := make([]string, 0, len(groups))
	for sku := range groups {
		skus = append(skus, sku)
	}
	sort.Strings(skus)

	cohorts := make([]Cohort, 0, len(skus))
	for _, sku := range skus {
		obs := groups[sku]
		sort.SliceStable(obs, func(i, j int) bool {
			return obs[i].CurrentPrice < obs[j].CurrentPrice
		})
		cohorts = append(cohorts, Cohort{SKU: sku, Observations: obs})
	}
	return cohorts
}
