package simulation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvironment_Demand(t *testing.T) {
	env := NewEnvironment(42)

	assert.Equal(t, 1.0, env.Demand(0))
	assert.InDelta(t, math.Exp(-1), env.Demand(0.5), 1e-12)
	assert.Equal(t, env.Demand(-0.3), env.Demand(0.3), "symmetric")
	assert.Less(t, env.Demand(0.6), env.Demand(0.4))

	env.Scale = 3
	assert.Equal(t, 3.0, env.Demand(0))
}

func TestEnvironment_Objective(t *testing.T) {
	env := NewEnvironment(42)
	x, y := 0.25, 0.5

	assert.InDelta(t, env.Demand(x)+0.5*env.Demand(y), env.DemandWithCross(x, y, 0.5), 1e-12)

	want := x*env.DemandWithCross(x, y, 0.2) + y*env.DemandWithCross(y, x, 0.7)
	assert.InDelta(t, want, env.Objective(x, y, 0.2, 0.7), 1e-12)

	assert.Equal(t, env.Objective(x, y, 0, 0), env.Sample(x, y, false))
	assert.Equal(t, env.DemandWithCross(x, y, 0.3), env.SampleDemand(x, y, 0.3, false))
}

func TestEnvironment_SampleNoise(t *testing.T) {
	a := NewEnvironment(1)
	b := NewEnvironment(1)

	xs := []float64{0.1, 0.2, 0.3, 0.4}
	ys := []float64{0.4, 0.3, 0.2}
	sa := a.SampleGrid(xs, ys, true)
	sb := b.SampleGrid(xs, ys, true)
	assert.Len(t, sa, 3)
	assert.Equal(t, sa, sb, "same seed, same noise")

	clean := a.SampleGrid(xs, ys, false)
	var sumSq float64
	for i := range clean {
		assert.NotEqual(t, clean[i], sa[i])
		sumSq += (sa[i] - clean[i]) * (sa[i] - clean[i])
	}
	assert.Less(t, math.Sqrt(sumSq/3), 0.5, "noise stays near 0.1 scale")
}
