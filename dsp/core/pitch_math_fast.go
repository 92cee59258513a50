//go:build fastmath

package core

import "github.com/meko-christian/algo-approx"

const ln2 = 0.693147180559945309417232121458

// exp2 computes 2^x using fast approximation.
// Detune is evaluated per sample, so this sits in the oscillator hot path.
func exp2(x float64) float64 {
	return approx.FastExp(x * ln2)
}
