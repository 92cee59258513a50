package node

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-voice/dsp/core"
)

// Context owns a signal graph and renders it.
type Context struct {
	cfg core.ProcessorConfig

	mu    sync.Mutex
	frame int64

	live    atomic.Int64
	seed    atomic.Uint64
	dest    *Destination
	silence []float64
}

// NewContext creates a context. Block size bounds the largest chunk pulled
// through the graph at once; Render accepts buffers of any length.
func NewContext(opts ...core.ProcessorOption) (*Context, error) {
	cfg := core.ApplyProcessorOptions(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("node: %w", err)
	}

	c := &Context{
		cfg:     cfg,
		silence: make([]float64, cfg.BlockSize),
	}
	b := &base{ctx: c}
	c.dest = &Destination{in: b.newInlet()}
	return c, nil
}

// Config returns the processor configuration.
func (c *Context) Config() core.ProcessorConfig { return c.cfg }

// SampleRate returns the sample rate in Hz.
func (c *Context) SampleRate() float64 { return c.cfg.SampleRate }

// BlockSize returns the render block size.
func (c *Context) BlockSize() int { return c.cfg.BlockSize }

// Destination returns the master bus that Render reads from.
func (c *Context) Destination() *Destination { return c.dest }

// LiveNodes returns the number of allocated nodes that are not yet disposed.
func (c *Context) LiveNodes() int { return int(c.live.Load()) }

// CurrentTime returns the number of seconds rendered so far.
func (c *Context) CurrentTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return float64(c.frame) / c.cfg.SampleRate
}

// Render fills out with the next len(out) samples of the destination bus.
func (c *Context) Render(out []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	bs := c.cfg.BlockSize
	for off := 0; off < len(out); off += bs {
		end := min(off+bs, len(out))
		c.dest.in.mix(c.frame, out[off:end])
		c.frame += int64(end - off)
	}
}

// frameAt converts a schedule time in seconds to a frame that is never in
// the past. Must be called with c.mu held.
func (c *Context) frameAt(seconds float64) int64 {
	f := int64(math.Round(seconds * c.cfg.SampleRate))
	if f < c.frame {
		return c.frame
	}
	return f
}

func (c *Context) nextSeed() uint64 {
	return c.seed.Add(0x9e3779b97f4a7c15)
}

// Destination is the master bus of a Context.
type Destination struct {
	in *inlet
}

func (d *Destination) sink() *inlet { return d.in }

// Inputs returns the number of outputs connected to the bus.
func (d *Destination) Inputs() int {
	ctx := d.in.node.ctx
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	return len(d.in.sources)
}
