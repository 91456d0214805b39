package simulation

import (
	"math"
	"math/rand"
)

// Environment is a toy two-product market. Each product's demand is a
// Gaussian bump around zero price, optionally raised by the other product's
// demand through a cross coefficient.
type Environment struct {
	Scale float64
	rng   *rand.Rand
}

// NewEnvironment creates an environment with unit scale whose sampling
// noise comes from its own generator seeded with seed.
func NewEnvironment(seed int64) *Environment {
	return &Environment{Scale: 1, rng: rand.New(rand.NewSource(seed))}
}

// Demand is scale * exp(-(2x)^2).
func (e *Environment) Demand(x float64) float64 {
	return e.Scale * math.Exp(-math.Pow(2*x, 2))
}

// DemandWithCross is Demand(x) + l*Demand(y).
func (e *Environment) DemandWithCross(x, y, l float64) float64 {
	return e.Demand(x) + l*e.Demand(y)
}

// Objective is the joint revenue of pricing the products at x and y. lyx is
// the effect of y's demand on x, lxy the effect of x's demand on y.
func (e *Environment) Objective(x, y, lyx, lxy float64) float64 {
	return x*e.DemandWithCross(x, y, lyx) + y*e.DemandWithCross(y, x, lxy)
}

// Sample evaluates the objective without cross effects, plus
// Normal(0, 0.1*scale) noise when noise is set.
func (e *Environment) Sample(x, y float64, noise bool) float64 {
	return e.Objective(x, y, 0, 0) + e.noise(noise)
}

// SampleDemand evaluates DemandWithCross(x, y, l) with optional noise.
func (e *Environment) SampleDemand(x, y, l float64, noise bool) float64 {
	return e.DemandWithCross(x, y, l) + e.noise(noise)
}

// SampleGrid samples the objective at every (xs[i], ys[i]) pair.
func (e *Environment) SampleGrid(xs, ys []float64, noise bool) []float64 {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = e.Sample(xs[i], ys[i], noise)
	}
	return out
}

func (e *Environment) noise(enabled bool) float64 {
	if !enabled {
		return 0
	}
	return e.rng.NormFloat64() * 0.1 * e.Scale
}
