package core

import "math"

const defaultEpsilon = 1e-12

// Reference tuning for MIDI conversions.
const (
	A4Frequency = 440.0
	A4Note      = 69
)

// Clamp limits value to the inclusive range [min, max].
func Clamp(value, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}

	if value < min {
		return min
	}

	if value > max {
		return max
	}

	return value
}

// NearlyEqual reports whether a and b are equal within eps.
func NearlyEqual(a, b, eps float64) bool {
	if eps <= 0 {
		eps = defaultEpsilon
	}

	diff := math.Abs(a - b)
	if diff <= eps {
		return true
	}

	largest := math.Max(math.Abs(a), math.Abs(b))
	if largest == 0 {
		return diff <= eps
	}

	return diff/largest <= eps
}

// IsFinite reports whether x is neither NaN nor infinite.
func IsFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// FlushDenormals converts tiny denormal-like values to exact zero.
func FlushDenormals(x float64) float64 {
	const epsilon = 1e-30
	if x > -epsilon && x < epsilon {
		return 0
	}

	return x
}

// DBToLinear converts dB to linear amplitude (20*log10 convention).
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// LinearToDB converts linear amplitude to dB (20*log10 convention).
// Returns -Inf for zero and NaN for negative values.
func LinearToDB(linear float64) float64 {
	if linear < 0 {
		return math.NaN()
	}

	if linear == 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(linear)
}

// CentsToRatio converts a pitch offset in cents to a frequency ratio.
// 1200 cents is one octave.
func CentsToRatio(cents float64) float64 {
	if cents == 0 {
		return 1
	}
	return exp2(cents / 1200)
}

// MIDIToFrequency converts a (possibly fractional) MIDI note number to Hz
// using equal temperament around A4 = 440 Hz.
func MIDIToFrequency(note float64) float64 {
	return A4Frequency * math.Pow(2, (note-A4Note)/12)
}

// FrequencyToMIDI converts a frequency in Hz to a fractional MIDI note.
// Returns NaN for non-positive frequencies.
func FrequencyToMIDI(freq float64) float64 {
	if freq <= 0 {
		return math.NaN()
	}
	return A4Note + 12*math.Log2(freq/A4Frequency)
}
