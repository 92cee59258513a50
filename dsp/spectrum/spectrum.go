// Package spectrum measures the frequency content of rendered blocks.
package spectrum

import (
	"errors"
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-voice/dsp/window"
)

// ErrSize is returned for FFT sizes that are not a power of two >= 2.
var ErrSize = errors.New("spectrum: size must be a power of two >= 2")

// Analyzer computes windowed magnitude spectra of a fixed size.
// An Analyzer is not safe for concurrent use.
type Analyzer struct {
	size int
	plan *algofft.Plan[complex128]
	win  []float64
	gain float64

	frame []float64
	in    []complex128
	out   []complex128
	re    []float64
	im    []float64
}

// NewAnalyzer creates a Hann-windowed analyzer of the given FFT size.
func NewAnalyzer(size int) (*Analyzer, error) {
	if size < 2 || size&(size-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrSize, size)
	}
	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("spectrum: failed to create FFT plan: %w", err)
	}
	win := window.Generate(window.TypeHann, size)
	bins := size/2 + 1
	return &Analyzer{
		size:  size,
		plan:  plan,
		win:   win,
		gain:  window.CoherentGain(win),
		frame: make([]float64, size),
		in:    make([]complex128, size),
		out:   make([]complex128, size),
		re:    make([]float64, bins),
		im:    make([]float64, bins),
	}, nil
}

// Size returns the FFT size.
func (a *Analyzer) Size() int { return a.size }

// Magnitude returns the amplitude spectrum of samples (bins 0..size/2).
// Shorter input is zero-padded; longer input is truncated. A full-scale
// bin-centred sine reads about 1.0 in its bin.
func (a *Analyzer) Magnitude(samples []float64) ([]float64, error) {
	for i := range a.frame {
		a.frame[i] = 0
	}
	copy(a.frame, samples)
	window.Apply(a.frame, a.win)

	for i, v := range a.frame {
		a.in[i] = complex(v, 0)
	}
	if err := a.plan.Forward(a.out, a.in); err != nil {
		return nil, fmt.Errorf("spectrum: forward FFT failed: %w", err)
	}

	scale := 2 / (float64(a.size) * a.gain)
	for k := range a.re {
		a.re[k] = real(a.out[k]) * scale
		a.im[k] = imag(a.out[k]) * scale
	}
	mag := make([]float64, len(a.re))
	vecmath.Magnitude(mag, a.re, a.im)
	return mag, nil
}

// Peak is the strongest non-DC bin of a spectrum.
type Peak struct {
	Bin       int
	Frequency float64
	Magnitude float64
}

// PeakFrequency locates the strongest non-DC component of samples using
// parabolic interpolation around the peak bin.
func (a *Analyzer) PeakFrequency(samples []float64, sampleRate float64) (Peak, error) {
	mag, err := a.Magnitude(samples)
	if err != nil {
		return Peak{}, err
	}

	best := 1
	for k := 2; k < len(mag); k++ {
		if mag[k] > mag[best] {
			best = k
		}
	}

	offset := 0.0
	if best > 0 && best < len(mag)-1 {
		l, c, r := mag[best-1], mag[best], mag[best+1]
		if d := l - 2*c + r; d != 0 {
			offset = 0.5 * (l - r) / d
		}
	}
	return Peak{
		Bin:       best,
		Frequency: (float64(best) + offset) * sampleRate / float64(a.size),
		Magnitude: mag[best],
	}, nil
}
