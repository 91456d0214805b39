package pricing

import (
	"fmt"
	"math"
)

// Minimizer defaults.
const (
	DefaultXAtol   = 1e-5
	DefaultMaxIter = 500
)

var (
	sqrtEps    = math.Sqrt(2.220446049250313e-16)
	goldenMean = 0.5 * (3.0 - math.Sqrt(5.0))
)

// MinimizeResult is the outcome of a bounded scalar minimization.
type MinimizeResult struct {
	X          float64
	Fun        float64
	Iterations int
	Converged  bool
}

// Minimizer performs bounded scalar minimization with Brent's method:
// golden-section steps combined with parabolic interpolation, never
// evaluating the function outside [low, high].
type Minimizer struct {
	XAtol   float64
	MaxIter int
}

// DefaultMinimizer returns a Minimizer with the default tolerance and
// iteration budget.
func DefaultMinimizer() Minimizer {
	return Minimizer{XAtol: DefaultXAtol, MaxIter: DefaultMaxIter}
}

// Minimize searches [low, high] for a minimum of f. Non-convergence is
// reported through MinimizeResult.Converged, not as an error.
func (m Minimizer) Minimize(f func(float64) float64, low, high float64) (MinimizeResult, error) {
	if !isFinite(low) || !isFinite(high) {
		return MinimizeResult{}, fmt.Errorf("bounds must be finite: [%v, %v]", low, high)
	}
	if low > high {
		return MinimizeResult{}, fmt.Errorf("lower bound %v exceeds upper bound %v", low, high)
	}

	xatol := m.XAtol
	if xatol <= 0 {
		xatol = DefaultXAtol
	}
	maxIter := m.MaxIter
	if maxIter <= 0 {
		maxIter = DefaultMaxIter
	}

	a, b := low, high
	fulc := a + goldenMean*(b-a)
	nfc, xf := fulc, fulc
	var rat, e float64
	x := xf
	fx := f(x)
	num := 1
	fu := math.Inf(1)
	ffulc, fnfc := fx, fx
	xm := 0.5 * (a + b)
	tol1 := sqrtEps*math.Abs(xf) + xatol/3.0
	tol2 := 2.0 * tol1

	converged := true
	for math.Abs(xf-xm) > tol2-0.5*(b-a) {
		golden := true

		if math.Abs(e) > tol1 {
			golden = false
			r := (xf - nfc) * (fx - ffulc)
			q := (xf - fulc) * (fx - fnfc)
			p := (xf-fulc)*q - (xf-nfc)*r
			q = 2.0 * (q - r)
			if q > 0.0 {
				p = -p
			}
			q = math.Abs(q)
			r = e
			e = rat

			if math.Abs(p) < math.Abs(0.5*q*r) && p > q*(a-xf) && p < q*(b-xf) {
				rat = p / q
				x = xf + rat
				if (x-a) < tol2 || (b-x) < tol2 {
					rat = tol1 * signOrOne(xm-xf)
				}
			} else {
				golden = true
			}
		}

		if golden {
			if xf >= xm {
				e = a - xf
			} else {
				e = b - xf
			}
			rat = goldenMean * e
		}

		x = xf + signOrOne(rat)*math.Max(math.Abs(rat), tol1)
		fu = f(x)
		num++

		if fu <= fx {
			if x >= xf {
				a = xf
			} else {
				b = xf
			}
			fulc, ffulc = nfc, fnfc
			nfc, fnfc = xf, fx
			xf, fx = x, fu
		} else {
			if x < xf {
				a = x
			} else {
				b = x
			}
			if fu <= fnfc || nfc == xf {
				fulc, ffulc = nfc, fnfc
				nfc, fnfc = x, fu
			} else if fu <= ffulc || fulc == xf || fulc == nfc {
				fulc, ffulc = x, fu
			}
		}

		xm = 0.5 * (a + b)
		tol1 = sqrtEps*math.Abs(xf) + xatol/3.0
		tol2 = 2.0 * tol1

		if num >= maxIter {
			converged = false
			break
		}
	}

	if math.IsNaN(xf) || math.IsNaN(fx) || math.IsNaN(fu) {
		converged = false
	}

	return MinimizeResult{X: xf, Fun: fx, Iterations: num, Converged: converged}, nil
}

// signOrOne is sign(v) with zero mapped to +1.
func signOrOne(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// MarginVolumeObjective returns the function minimized when searching for the
// margin-maximizing price: the negated product of margin fraction and volume.
// Prices at or below cost are infeasible and evaluate to +Inf.
func MarginVolumeObjective(cost float64, curve Curve) func(float64) float64 {
	return func(price float64) float64 {
		if price <= cost {
			return math.Inf(1)
		}
		margin := (price - cost) / cost
		return -margin * curve.Volume(price)
	}
}

// OptimalPrice finds the price in bounds that maximizes margin times volume.
// ok is false when the minimizer does not converge or when no price above
// cost exists inside the bounds.
func (m Minimizer) OptimalPrice(cost float64, curve Curve, bounds PriceBounds) (price float64, ok bool) {
	res, err := m.Minimize(MarginVolumeObjective(cost, curve), bounds.Low, bounds.High)
	if err != nil || !res.Converged || math.IsInf(res.Fun, 1) {
		return 0, false
	}
	return res.X, true
}

// OptimalPrice runs the default minimizer.
func OptimalPrice(cost float64, curve Curve, bounds PriceBounds) (float64, bool) {
	return DefaultMinimizer().OptimalPrice(cost, curve, bounds)
}
