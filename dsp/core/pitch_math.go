//go:build !fastmath

package core

import "math"

// exp2 computes 2^x.
func exp2(x float64) float64 {
	return math.Exp2(x)
}
