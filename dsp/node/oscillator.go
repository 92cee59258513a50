package node

import (
	"fmt"
	"math/rand/v2"

	"github.com/cwbudde/algo-voice/dsp/core"
)

// Oscillator is an audio-rate tone or noise source. Its Frequency is in Hz
// and its Detune in cents; Width sets the duty cycle of the Pulse shape.
type Oscillator struct {
	*base
	*outlet

	Frequency *Param
	Detune    *Param
	Width     *Param

	waveform   Waveform
	phase      float64
	running    bool
	portamento float64

	rng   *rand.Rand
	pink  [3]float64
	brown float64
}

// NewOscillator allocates a stopped oscillator.
func (c *Context) NewOscillator(w Waveform, frequency float64) *Oscillator {
	o := &Oscillator{base: newBase(c), waveform: w}
	o.outlet = o.base.newOutlet(o.process)
	o.Frequency = o.base.newParam("frequency", frequency, 0, c.cfg.SampleRate/2)
	o.Detune = o.base.unboundedParam("detune", 0)
	o.Width = o.base.newParam("width", 0.5, 0.01, 0.99)
	o.rng = rand.New(rand.NewPCG(c.nextSeed(), 0x2545f4914f6cdd1d))
	return o
}

// Param implements ParamLookup.
func (o *Oscillator) Param(name string) (*Param, bool) {
	switch name {
	case "frequency":
		return o.Frequency, true
	case "detune":
		return o.Detune, true
	case "width":
		return o.Width, true
	}
	return nil, false
}

// Waveform returns the current shape.
func (o *Oscillator) Waveform() Waveform {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()
	return o.waveform
}

// SetWaveform switches the shape without resetting phase.
func (o *Oscillator) SetWaveform(w Waveform) {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()
	o.waveform = w
}

// SetPhase sets the phase in turns; only the fractional part is kept.
func (o *Oscillator) SetPhase(turns float64) error {
	if !core.IsFinite(turns) {
		return fmt.Errorf("%w: phase %v", ErrInvalidParam, turns)
	}
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()
	o.phase = wrapPhase(turns)
	return nil
}

// Start makes the oscillator audible from the next block.
func (o *Oscillator) Start() {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()
	o.running = true
}

// Stop silences the oscillator.
func (o *Oscillator) Stop() {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()
	o.running = false
}

// Running reports whether the oscillator is started.
func (o *Oscillator) Running() bool {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()
	return o.running
}

// SetPortamento sets the glide time used by Glide.
func (o *Oscillator) SetPortamento(seconds float64) error {
	if !core.IsFinite(seconds) || seconds < 0 {
		return fmt.Errorf("%w: portamento %v", ErrInvalidParam, seconds)
	}
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()
	o.portamento = seconds
	return nil
}

// Portamento returns the glide time in seconds.
func (o *Oscillator) Portamento() float64 {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()
	return o.portamento
}

// Glide moves the frequency to hz over the portamento time.
func (o *Oscillator) Glide(hz float64) error {
	return o.Frequency.RampTo(hz, o.Portamento())
}

func (o *Oscillator) process(frame int64, out []float64) {
	n := len(out)
	freq := o.Frequency.render(frame, n)
	detune := o.Detune.render(frame, n)
	width := o.Width.render(frame, n)

	if !o.running {
		core.Zero(out)
		return
	}

	switch o.waveform {
	case WhiteNoise, PinkNoise, BrownNoise:
		o.noise(out)
		return
	}

	step := 1 / o.ctx.cfg.SampleRate
	for i := range out {
		out[i] = shape(o.waveform, o.phase, width[i])
		f := freq[i]
		if d := detune[i]; d != 0 {
			f *= core.CentsToRatio(d)
		}
		o.phase = wrapPhase(o.phase + f*step)
	}
}

func (o *Oscillator) noise(out []float64) {
	for i := range out {
		white := o.rng.Float64()*2 - 1
		switch o.waveform {
		case PinkNoise:
			o.pink[0] = 0.99765*o.pink[0] + white*0.0990460
			o.pink[1] = 0.96300*o.pink[1] + white*0.2965164
			o.pink[2] = 0.57000*o.pink[2] + white*1.0526913
			out[i] = (o.pink[0] + o.pink[1] + o.pink[2] + white*0.1848) * 0.25
		case BrownNoise:
			o.brown = (o.brown + 0.02*white) / 1.02
			out[i] = o.brown * 3.5
		default:
			out[i] = white
		}
	}
}
