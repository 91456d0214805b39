package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarginVolumeObjectiveInfeasibleAtOrBelowCost(t *testing.T) {
	obj := MarginVolumeObjective(50, Curve{MaxUnits: 100, Steepness: 0.3, Inflection: 70})

	for _, p := range []float64{-10, 0, 10, 49.99, 50} {
		assert.True(t, math.IsInf(obj(p), 1), "price %v should be infeasible", p)
	}
	assert.Less(t, obj(50.01), 0.0)
	assert.Less(t, obj(70), 0.0)
}

func TestMarginVolumeObjectiveValue(t *testing.T) {
	curve := Curve{MaxUnits: 100, Steepness: 0.3, Inflection: 70}
	obj := MarginVolumeObjective(50, curve)

	// margin 0.4 at price 70, volume L/2
	assert.InDelta(t, -0.4*50, obj(70), 1e-12)
}

func TestMinimizeQuadratic(t *testing.T) {
	m := DefaultMinimizer()

	res, err := m.Minimize(func(x float64) float64 { return (x - 2) * (x - 2) }, 0, 5)
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.InDelta(t, 2.0, res.X, 1e-4)
	assert.InDelta(t, 0.0, res.Fun, 1e-8)
	assert.Greater(t, res.Iterations, 1)
}

func TestMinimizeBoundaryMinimum(t *testing.T) {
	res, err := DefaultMinimizer().Minimize(func(x float64) float64 { return x }, 1, 3)
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.GreaterOrEqual(t, res.X, 1.0)
	assert.InDelta(t, 1.0, res.X, 1e-3)
}

func TestMinimizeDegenerateInterval(t *testing.T) {
	res, err := DefaultMinimizer().Minimize(func(x float64) float64 { return x * x }, 4, 4)
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.Equal(t, 4.0, res.X)
}

func TestMinimizeInvalidBounds(t *testing.T) {
	m := DefaultMinimizer()
	f := func(x float64) float64 { return x }

	_, err := m.Minimize(f, 5, 1)
	assert.Error(t, err)

	_, err = m.Minimize(f, math.NaN(), 1)
	assert.Error(t, err)

	_, err = m.Minimize(f, 0, math.Inf(1))
	assert.Error(t, err)
}

func TestMinimizeIterationBudget(t *testing.T) {
	m := Minimizer{XAtol: 1e-12, MaxIter: 3}

	res, err := m.Minimize(func(x float64) float64 { return (x - 2) * (x - 2) }, 0, 5)
	require.NoError(t, err)
	assert.False(t, res.Converged)
	assert.Equal(t, 3, res.Iterations)
}

func TestMinimizeNaNObjective(t *testing.T) {
	res, err := DefaultMinimizer().Minimize(func(float64) float64 { return math.NaN() }, 0, 1)
	require.NoError(t, err)
	assert.False(t, res.Converged)
}

func TestOptimalPriceWithinBounds(t *testing.T) {
	tests := []struct {
		name   string
		cost   float64
		curve  Curve
		bounds PriceBounds
	}{
		{"example cohort", 50, Curve{100, 0.35, 70}, PriceBounds{55, 90}},
		{"bounds straddle cost", 50, Curve{100, 0.35, 70}, PriceBounds{20, 90}},
		{"flat curve", 12, Curve{900, 0.01, 30}, PriceBounds{24, 36}},
		{"steep curve", 240, Curve{200, 0.06, 375}, PriceBounds{320, 420}},
		{"optimum at upper bound", 5, Curve{1200, 0.001, 11}, PriceBounds{9, 14}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, ok := OptimalPrice(tt.cost, tt.curve, tt.bounds)
			require.True(t, ok)
			assert.True(t, tt.bounds.Contains(price), "price %v outside %+v", price, tt.bounds)
			assert.Greater(t, price, tt.cost)
		})
	}
}

func TestOptimalPriceMatchesGridSearch(t *testing.T) {
	cost := 55.0
	curve := Curve{MaxUnits: 500, Steepness: 0.2, Inflection: 100}
	bounds := PriceBounds{Low: 80, High: 120}
	obj := MarginVolumeObjective(cost, curve)

	best := math.Inf(1)
	for p := bounds.Low; p <= bounds.High; p += 0.001 {
		best = math.Min(best, obj(p))
	}

	price, ok := OptimalPrice(cost, curve, bounds)
	require.True(t, ok)
	assert.LessOrEqual(t, obj(price), best+1e-6*math.Abs(best))
}

func TestOptimalPriceNoFeasiblePrice(t *testing.T) {
	_, ok := OptimalPrice(100, Curve{MaxUnits: 100, Steepness: 0.3, Inflection: 70}, PriceBounds{Low: 10, High: 90})
	assert.False(t, ok)
}

func TestOptimalPriceNonConvergence(t *testing.T) {
	m := Minimizer{XAtol: 1e-12, MaxIter: 2}
	_, ok := m.OptimalPrice(50, Curve{MaxUnits: 100, Steepness: 0.3, Inflection: 70}, PriceBounds{Low: 55, High: 90})
	assert.False(t, ok)
}
