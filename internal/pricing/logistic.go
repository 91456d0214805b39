package pricing

import "math"

// LogisticDecay returns the expected units sold at price for a logistic
// demand curve with maximum maxUnits, steepness k and inflection price p0.
func LogisticDecay(price, maxUnits, k, p0 float64) float64 {
	return maxUnits / (1 + math.Exp(k*(price-p0)))
}

// Curve is a fitted logistic demand curve.
type Curve struct {
	MaxUnits   float64 `json:"max_units"`  // L
	Steepness  float64 `json:"steepness"`  // k
	Inflection float64 `json:"inflection"` // p0
}

// Volume evaluates the curve at a single price.
func (c Curve) Volume(price float64) float64 {
	return LogisticDecay(price, c.MaxUnits, c.Steepness, c.Inflection)
}

// Volumes evaluates the curve at every price, one output per input.
func (c Curve) Volumes(prices []float64) []float64 {
	out := make([]float64, len(prices))
	for i, p := range prices {
		out[i] = c.Volume(p)
	}
	return out
}

// fitCurve derives steepness and inflection from a cohort's sorted prices.
// draw is the steepness factor taken from the run's generator.
func fitCurve(sortedPrices []float64, maxUnits, draw float64) Curve {
	spread := sortedPrices[len(sortedPrices)-1] - sortedPrices[0]
	return Curve{
		MaxUnits:   maxUnits,
		Steepness:  draw / spread,
		Inflection: median(sortedPrices),
	}
}

// median expects sorted input.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
