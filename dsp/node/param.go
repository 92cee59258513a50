package node

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-voice/dsp/core"
)

// Param is a per-sample control value. Its effective value is the base
// value plus every connected modulation signal, clamped to the param range.
type Param struct {
	name string
	ctx  *Context
	in   *inlet

	value  float64
	target float64
	step   float64
	left   int

	min, max float64
	buf      []float64
	mod      []float64
}

func (b *base) newParam(name string, value, min, max float64) *Param {
	bs := b.ctx.cfg.BlockSize
	return &Param{
		name:  name,
		ctx:   b.ctx,
		in:    b.newInlet(),
		value: core.Clamp(value, min, max),
		min:   min,
		max:   max,
		buf:   make([]float64, bs),
		mod:   make([]float64, bs),
	}
}

func (b *base) unboundedParam(name string, value float64) *Param {
	return b.newParam(name, value, math.Inf(-1), math.Inf(1))
}

func (p *Param) sink() *inlet { return p.in }

// Name returns the parameter name.
func (p *Param) Name() string { return p.name }

// Range returns the clamp range.
func (p *Param) Range() (min, max float64) { return p.min, p.max }

// Value returns the current base value, excluding modulation.
func (p *Param) Value() float64 {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	return p.value
}

// Target returns the value the param settles at once a running ramp ends.
func (p *Param) Target() float64 {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	if p.left > 0 {
		return p.target
	}
	return p.value
}

// Modulators returns the number of signals connected to the param.
func (p *Param) Modulators() int {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	return len(p.in.sources)
}

// SetValue sets the base value immediately and cancels any ramp.
func (p *Param) SetValue(v float64) error {
	if !core.IsFinite(v) {
		return fmt.Errorf("%w: %s = %v", ErrInvalidParam, p.name, v)
	}
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	p.value = core.Clamp(v, p.min, p.max)
	p.left = 0
	return nil
}

// RampTo moves the base value linearly to v over the given duration,
// starting at the next rendered sample. A non-positive duration sets the
// value immediately.
func (p *Param) RampTo(v, seconds float64) error {
	if !core.IsFinite(v) || math.IsNaN(seconds) {
		return fmt.Errorf("%w: %s = %v over %vs", ErrInvalidParam, p.name, v, seconds)
	}
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()

	v = core.Clamp(v, p.min, p.max)
	n := p.ctx.cfg.Samples(seconds)
	if n <= 0 {
		p.value = v
		p.left = 0
		return nil
	}
	p.target = v
	p.step = (v - p.value) / float64(n)
	p.left = n
	return nil
}

// render advances the ramp by n samples and returns the effective values.
func (p *Param) render(frame int64, n int) []float64 {
	buf := p.buf[:n]
	for i := range buf {
		if p.left > 0 {
			p.left--
			if p.left == 0 {
				p.value = p.target
			} else {
				p.value += p.step
			}
		}
		buf[i] = p.value
	}

	if len(p.in.sources) == 0 {
		return buf
	}
	mod := p.mod[:n]
	p.in.mix(frame, mod)
	for i := range buf {
		buf[i] = core.Clamp(buf[i]+mod[i], p.min, p.max)
	}
	return buf
}
