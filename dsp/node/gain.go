package node

import "github.com/cwbudde/algo-vecmath"

// Gain multiplies its summed input by a gain param. Gain doubles as the
// scalar multiplier used to scale control signals.
type Gain struct {
	*base
	*outlet

	Gain *Param

	in     *inlet
	bypass bool
}

// NewGain allocates a gain stage.
func (c *Context) NewGain(gain float64) *Gain {
	g := &Gain{base: newBase(c)}
	g.outlet = g.base.newOutlet(g.process)
	g.in = g.base.newInlet()
	g.Gain = g.base.unboundedParam("gain", gain)
	return g
}

func (g *Gain) sink() *inlet { return g.in }

// Param implements ParamLookup.
func (g *Gain) Param(name string) (*Param, bool) {
	if name == "gain" {
		return g.Gain, true
	}
	return nil, false
}

// SetBypass passes the input through at unity gain while bypassed.
func (g *Gain) SetBypass(bypass bool) {
	g.ctx.mu.Lock()
	defer g.ctx.mu.Unlock()
	g.bypass = bypass
}

// Bypassed reports the bypass state.
func (g *Gain) Bypassed() bool {
	g.ctx.mu.Lock()
	defer g.ctx.mu.Unlock()
	return g.bypass
}

func (g *Gain) process(frame int64, out []float64) {
	g.in.mix(frame, out)
	gain := g.Gain.render(frame, len(out))
	if g.bypass {
		return
	}
	vecmath.MulBlockInPlace(out, gain)
}

// Constant outputs its Offset param.
type Constant struct {
	*base
	*outlet

	Offset *Param
}

// NewConstant allocates a constant source.
func (c *Context) NewConstant(offset float64) *Constant {
	k := &Constant{base: newBase(c)}
	k.outlet = k.base.newOutlet(k.process)
	k.Offset = k.base.unboundedParam("offset", offset)
	return k
}

// Param implements ParamLookup.
func (k *Constant) Param(name string) (*Param, bool) {
	if name == "offset" {
		return k.Offset, true
	}
	return nil, false
}

func (k *Constant) process(frame int64, out []float64) {
	copy(out, k.Offset.render(frame, len(out)))
}
