package signal

import "math"

// NormalCDF returns P(Z <= x) for a standard normal Z.
// math.Erf saturates to ±1, so large |x| yields exactly 0 or 1.
func NormalCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}
