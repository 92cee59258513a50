package node

import (
	"math"
	"strings"
)

// Waveform selects the shape produced by an Oscillator or LFO.
type Waveform int

const (
	Sine Waveform = iota
	Square
	Sawtooth
	Triangle
	Pulse
	WhiteNoise
	PinkNoise
	BrownNoise
)

var waveformNames = [...]string{
	Sine:       "sine",
	Square:     "square",
	Sawtooth:   "sawtooth",
	Triangle:   "triangle",
	Pulse:      "pulse",
	WhiteNoise: "white",
	PinkNoise:  "pink",
	BrownNoise: "brown",
}

// ParseWaveform resolves a waveform name. "saw" is accepted for sawtooth.
func ParseWaveform(name string) (Waveform, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "saw" {
		return Sawtooth, true
	}
	for w, n := range waveformNames {
		if n == name {
			return Waveform(w), true
		}
	}
	return Sine, false
}

func (w Waveform) String() string {
	if w < 0 || int(w) >= len(waveformNames) {
		return "unknown"
	}
	return waveformNames[w]
}

// Periodic reports whether the waveform repeats with the oscillator phase.
func (w Waveform) Periodic() bool {
	return w >= Sine && w <= Pulse
}

// shape evaluates a periodic waveform at phase in [0, 1).
func shape(w Waveform, phase, width float64) float64 {
	switch w {
	case Square:
		if phase < 0.5 {
			return 1
		}
		return -1
	case Sawtooth:
		return 2*phase - 1
	case Triangle:
		if phase < 0.5 {
			return 4*phase - 1
		}
		return 3 - 4*phase
	case Pulse:
		if phase < width {
			return 1
		}
		return -1
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}

func wrapPhase(phase float64) float64 {
	return phase - math.Floor(phase)
}
