package node

import (
	"fmt"

	"github.com/cwbudde/algo-voice/dsp/core"
)

// LFO is a low-frequency control source whose periodic shape is mapped
// into [min, max]. A stopped LFO outputs zero.
type LFO struct {
	*base
	*outlet

	Frequency *Param

	waveform Waveform
	min, max float64
	phase    float64
	running  bool
}

// NewLFO allocates a stopped LFO. Noise waveforms fall back to Sine.
func (c *Context) NewLFO(w Waveform, frequency, min, max float64) *LFO {
	if !w.Periodic() {
		w = Sine
	}
	l := &LFO{base: newBase(c), waveform: w, min: min, max: max}
	l.outlet = l.base.newOutlet(l.process)
	l.Frequency = l.base.newParam("frequency", frequency, 0, c.cfg.SampleRate/2)
	return l
}

// Param implements ParamLookup.
func (l *LFO) Param(name string) (*Param, bool) {
	if name == "frequency" {
		return l.Frequency, true
	}
	return nil, false
}

// SetWaveform changes the shape. Only periodic shapes are accepted.
func (l *LFO) SetWaveform(w Waveform) error {
	if !w.Periodic() {
		return fmt.Errorf("%w: lfo waveform %s", ErrInvalidParam, w)
	}
	l.ctx.mu.Lock()
	defer l.ctx.mu.Unlock()
	l.waveform = w
	return nil
}

// Waveform returns the current shape.
func (l *LFO) Waveform() Waveform {
	l.ctx.mu.Lock()
	defer l.ctx.mu.Unlock()
	return l.waveform
}

// SetRange sets the output range.
func (l *LFO) SetRange(min, max float64) error {
	if !core.IsFinite(min) || !core.IsFinite(max) {
		return fmt.Errorf("%w: lfo range [%v, %v]", ErrInvalidParam, min, max)
	}
	l.ctx.mu.Lock()
	defer l.ctx.mu.Unlock()
	l.min, l.max = min, max
	return nil
}

// Range returns the output range.
func (l *LFO) Range() (min, max float64) {
	l.ctx.mu.Lock()
	defer l.ctx.mu.Unlock()
	return l.min, l.max
}

// SetPhase sets the phase in turns.
func (l *LFO) SetPhase(turns float64) error {
	if !core.IsFinite(turns) {
		return fmt.Errorf("%w: phase %v", ErrInvalidParam, turns)
	}
	l.ctx.mu.Lock()
	defer l.ctx.mu.Unlock()
	l.phase = wrapPhase(turns)
	return nil
}

// Start begins oscillating from the next block.
func (l *LFO) Start() {
	l.ctx.mu.Lock()
	defer l.ctx.mu.Unlock()
	l.running = true
}

// Stop returns the output to zero.
func (l *LFO) Stop() {
	l.ctx.mu.Lock()
	defer l.ctx.mu.Unlock()
	l.running = false
}

// Running reports whether the LFO is started.
func (l *LFO) Running() bool {
	l.ctx.mu.Lock()
	defer l.ctx.mu.Unlock()
	return l.running
}

func (l *LFO) process(frame int64, out []float64) {
	freq := l.Frequency.render(frame, len(out))
	if !l.running {
		core.Zero(out)
		return
	}

	span := l.max - l.min
	step := 1 / l.ctx.cfg.SampleRate
	for i := range out {
		v := shape(l.waveform, l.phase, 0.5)
		out[i] = l.min + (v+1)*0.5*span
		l.phase = wrapPhase(l.phase + freq[i]*step)
	}
}
