package node

import (
	"fmt"

	"github.com/cwbudde/algo-voice/dsp/core"
)

// Coefficients are recomputed from the (possibly modulated) params once per
// controlInterval samples.
const controlInterval = 32

var rolloffSections = map[int]int{-12: 1, -24: 2, -48: 4, -96: 8}

// ValidRolloff reports whether r is one of -12, -24, -48 or -96 dB/octave.
func ValidRolloff(r int) bool {
	_, ok := rolloffSections[r]
	return ok
}

// Filter is a biquad cascade. Frequency is in Hz, Detune in cents and Gain
// in dB (shelf and peaking types only).
type Filter struct {
	*base
	*outlet

	Frequency *Param
	Q         *Param
	Gain      *Param
	Detune    *Param

	in       *inlet
	typ      FilterType
	rolloff  int
	sections []section
	bypass   bool
}

// NewFilter allocates a -12 dB/octave filter.
func (c *Context) NewFilter(t FilterType, frequency float64) *Filter {
	f := &Filter{base: newBase(c), typ: t, rolloff: -12, sections: make([]section, 1)}
	f.outlet = f.base.newOutlet(f.process)
	f.in = f.base.newInlet()
	f.Frequency = f.base.newParam("frequency", frequency, 0, c.cfg.SampleRate/2)
	f.Q = f.base.newParam("Q", 1, 1e-4, 1000)
	f.Gain = f.base.newParam("gain", 0, -96, 96)
	f.Detune = f.base.unboundedParam("detune", 0)
	return f
}

func (f *Filter) sink() *inlet { return f.in }

// Param implements ParamLookup.
func (f *Filter) Param(name string) (*Param, bool) {
	switch name {
	case "frequency":
		return f.Frequency, true
	case "Q", "q":
		return f.Q, true
	case "gain":
		return f.Gain, true
	case "detune":
		return f.Detune, true
	}
	return nil, false
}

// Type returns the response type.
func (f *Filter) Type() FilterType {
	f.ctx.mu.Lock()
	defer f.ctx.mu.Unlock()
	return f.typ
}

// SetType changes the response type and keeps the filter state.
func (f *Filter) SetType(t FilterType) {
	f.ctx.mu.Lock()
	defer f.ctx.mu.Unlock()
	f.typ = t
}

// Rolloff returns the slope in dB/octave.
func (f *Filter) Rolloff() int {
	f.ctx.mu.Lock()
	defer f.ctx.mu.Unlock()
	return f.rolloff
}

// SetRolloff changes the slope. The cascade is rebuilt and its state cleared.
func (f *Filter) SetRolloff(r int) error {
	n, ok := rolloffSections[r]
	if !ok {
		return fmt.Errorf("%w: rolloff %d", ErrInvalidParam, r)
	}
	f.ctx.mu.Lock()
	defer f.ctx.mu.Unlock()
	f.rolloff = r
	f.sections = make([]section, n)
	return nil
}

// SetBypass passes the input through unfiltered while bypassed.
func (f *Filter) SetBypass(bypass bool) {
	f.ctx.mu.Lock()
	defer f.ctx.mu.Unlock()
	f.bypass = bypass
	if bypass {
		for i := range f.sections {
			f.sections[i].reset()
		}
	}
}

// Bypassed reports the bypass state.
func (f *Filter) Bypassed() bool {
	f.ctx.mu.Lock()
	defer f.ctx.mu.Unlock()
	return f.bypass
}

func (f *Filter) process(frame int64, out []float64) {
	n := len(out)
	f.in.mix(frame, out)
	freq := f.Frequency.render(frame, n)
	q := f.Q.render(frame, n)
	gain := f.Gain.render(frame, n)
	detune := f.Detune.render(frame, n)
	if f.bypass {
		return
	}

	sr := f.ctx.cfg.SampleRate
	for start := 0; start < n; start += controlInterval {
		end := min(start+controlInterval, n)

		fc := freq[start]
		if d := detune[start]; d != 0 {
			fc *= core.CentsToRatio(d)
		}
		fc = core.Clamp(fc, 10, 0.49*sr)
		c := design(f.typ, fc, q[start], gain[start], sr)
		for s := range f.sections {
			f.sections[s].c = c
		}

		for i := start; i < end; i++ {
			x := out[i]
			for s := range f.sections {
				x = f.sections[s].process(x)
			}
			out[i] = core.FlushDenormals(x)
		}
	}
}
