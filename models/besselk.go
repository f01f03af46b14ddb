package models

import (
	"math"

	"gonum.org/v1/gonum/integrate/quad"
)

// BesselK is the modified Bessel function of the second kind for any real
// order, from K_ν(x) = ∫₀^∞ exp(−x·cosh u)·cosh(νu) du. It is +Inf at x ≤ 0.
func BesselK(nu, x float64) float64 {
	if x <= 0 {
		return math.Inf(1)
	}
	nu = math.Abs(nu)
	// past upper the integrand is below e^-50 of its value at zero
	upper := 0.5
	for upper < 60 && x*math.Cosh(upper)-nu*upper < x+50 {
		upper += 0.5
	}
	f := func(u float64) float64 {
		c := -x * math.Cosh(u)
		return 0.5 * (math.Exp(c+nu*u) + math.Exp(c-nu*u))
	}
	return quad.Fixed(f, 0, upper, 256, nil, 0)
}
