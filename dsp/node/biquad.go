package node

import (
	"math"
	"strings"
)

// FilterType selects the biquad response.
type FilterType int

const (
	Lowpass FilterType = iota
	Highpass
	Bandpass
	Lowshelf
	Highshelf
	Notch
	Allpass
	Peaking
)

var filterTypeNames = [...]string{
	Lowpass:   "lowpass",
	Highpass:  "highpass",
	Bandpass:  "bandpass",
	Lowshelf:  "lowshelf",
	Highshelf: "highshelf",
	Notch:     "notch",
	Allpass:   "allpass",
	Peaking:   "peaking",
}

// ParseFilterType resolves a filter type name.
func ParseFilterType(name string) (FilterType, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, n := range filterTypeNames {
		if n == name {
			return FilterType(t), true
		}
	}
	return Lowpass, false
}

func (t FilterType) String() string {
	if t < 0 || int(t) >= len(filterTypeNames) {
		return "unknown"
	}
	return filterTypeNames[t]
}

// coefficients are normalized biquad coefficients (a0 = 1).
type coefficients struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// section is a transposed direct form II biquad.
type section struct {
	c      coefficients
	d0, d1 float64
}

func (s *section) process(x float64) float64 {
	y := s.c.b0*x + s.d0
	s.d0 = s.c.b1*x - s.c.a1*y + s.d1
	s.d1 = s.c.b2*x - s.c.a2*y
	return y
}

func (s *section) reset() {
	s.d0, s.d1 = 0, 0
}

// design computes RBJ cookbook coefficients. freq must lie in (0, sr/2).
func design(t FilterType, freq, q, gainDB, sr float64) coefficients {
	w0 := 2 * math.Pi * freq / sr
	cw, sw := math.Cos(w0), math.Sin(w0)
	alpha := sw / (2 * q)
	a := math.Pow(10, gainDB/40)

	var b0, b1, b2, a0, a1, a2 float64
	switch t {
	case Highpass:
		b0, b1, b2 = (1+cw)/2, -(1 + cw), (1+cw)/2
		a0, a1, a2 = 1+alpha, -2*cw, 1-alpha
	case Bandpass:
		b0, b1, b2 = alpha, 0, -alpha
		a0, a1, a2 = 1+alpha, -2*cw, 1-alpha
	case Notch:
		b0, b1, b2 = 1, -2*cw, 1
		a0, a1, a2 = 1+alpha, -2*cw, 1-alpha
	case Allpass:
		b0, b1, b2 = 1-alpha, -2*cw, 1+alpha
		a0, a1, a2 = 1+alpha, -2*cw, 1-alpha
	case Peaking:
		b0, b1, b2 = 1+alpha*a, -2*cw, 1-alpha*a
		a0, a1, a2 = 1+alpha/a, -2*cw, 1-alpha/a
	case Lowshelf:
		k := 2 * math.Sqrt(a) * alpha
		b0 = a * ((a + 1) - (a-1)*cw + k)
		b1 = 2 * a * ((a - 1) - (a+1)*cw)
		b2 = a * ((a + 1) - (a-1)*cw - k)
		a0 = (a + 1) + (a-1)*cw + k
		a1 = -2 * ((a - 1) + (a+1)*cw)
		a2 = (a + 1) + (a-1)*cw - k
	case Highshelf:
		k := 2 * math.Sqrt(a) * alpha
		b0 = a * ((a + 1) + (a-1)*cw + k)
		b1 = -2 * a * ((a - 1) + (a+1)*cw)
		b2 = a * ((a + 1) + (a-1)*cw - k)
		a0 = (a + 1) - (a-1)*cw + k
		a1 = 2 * ((a - 1) - (a+1)*cw)
		a2 = (a + 1) - (a-1)*cw - k
	default:
		b0, b1, b2 = (1-cw)/2, 1-cw, (1-cw)/2
		a0, a1, a2 = 1+alpha, -2*cw, 1-alpha
	}

	inv := 1 / a0
	return coefficients{b0: b0 * inv, b1: b1 * inv, b2: b2 * inv, a1: a1 * inv, a2: a2 * inv}
}
