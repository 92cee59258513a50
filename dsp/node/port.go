package node

import (
	"errors"

	"github.com/cwbudde/algo-voice/dsp/core"
)

var (
	// ErrDisposed is returned when connecting a node that has been disposed.
	ErrDisposed = errors.New("node: disposed")
	// ErrContextMismatch is returned when connecting ports of different contexts.
	ErrContextMismatch = errors.New("node: ports belong to different contexts")
	// ErrNilPort is returned for nil inputs or outputs.
	ErrNilPort = errors.New("node: nil port")
	// ErrInvalidParam is returned for non-finite or out-of-range settings.
	ErrInvalidParam = errors.New("node: invalid parameter")
)

// Node is a processing resource allocated by a Context.
type Node interface {
	Dispose()
	Disposed() bool
}

// Output is a signal that can feed any number of inputs.
type Output interface {
	Connect(dst Input) error
	Disconnect(dst Input) error
	IsConnected(dst Input) bool
	source() *outlet
}

// Input sums every Output connected to it. Audio inputs and parameters are
// both inputs.
type Input interface {
	sink() *inlet
}

// ParamLookup is implemented by nodes that expose named parameters.
type ParamLookup interface {
	Param(name string) (*Param, bool)
}

type base struct {
	ctx      *Context
	disposed bool
	out      *outlet
	ins      []*inlet
}

func newBase(ctx *Context) *base {
	ctx.live.Add(1)
	return &base{ctx: ctx}
}

func (b *base) newOutlet(proc func(frame int64, out []float64)) *outlet {
	o := &outlet{
		node:  b,
		proc:  proc,
		buf:   make([]float64, b.ctx.cfg.BlockSize),
		frame: -1,
	}
	b.out = o
	return o
}

func (b *base) newInlet() *inlet {
	in := &inlet{node: b}
	b.ins = append(b.ins, in)
	return in
}

// Dispose detaches the node from every connection and releases it.
// Calling Dispose again is a no-op.
func (b *base) Dispose() {
	b.ctx.mu.Lock()
	defer b.ctx.mu.Unlock()
	b.disposeLocked()
}

// Disposed reports whether Dispose has been called.
func (b *base) Disposed() bool {
	b.ctx.mu.Lock()
	defer b.ctx.mu.Unlock()
	return b.disposed
}

func (b *base) disposeLocked() {
	if b.disposed {
		return
	}
	b.disposed = true
	if b.out != nil {
		for _, in := range b.out.targets {
			in.removeSource(b.out)
		}
		b.out.targets = nil
	}
	for _, in := range b.ins {
		for _, src := range in.sources {
			src.removeTarget(in)
		}
		in.sources = nil
	}
	b.ctx.live.Add(-1)
}

type outlet struct {
	node    *base
	proc    func(frame int64, out []float64)
	buf     []float64
	frame   int64
	n       int
	busy    bool
	targets []*inlet
}

func (o *outlet) source() *outlet { return o }

// Connect routes this output into dst. Connecting twice is a no-op.
func (o *outlet) Connect(dst Input) error {
	if dst == nil {
		return ErrNilPort
	}
	in := dst.sink()
	if in == nil {
		return ErrNilPort
	}

	ctx := o.node.ctx
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if in.node.ctx != ctx {
		return ErrContextMismatch
	}
	if o.node.disposed || in.node.disposed {
		return ErrDisposed
	}
	if o.hasTarget(in) {
		return nil
	}
	o.targets = append(o.targets, in)
	in.sources = append(in.sources, o)
	return nil
}

// Disconnect removes the route to dst. It succeeds when no route exists.
func (o *outlet) Disconnect(dst Input) error {
	if dst == nil {
		return nil
	}
	in := dst.sink()
	if in == nil {
		return nil
	}

	ctx := o.node.ctx
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	o.removeTarget(in)
	in.removeSource(o)
	return nil
}

// IsConnected reports whether this output currently feeds dst.
func (o *outlet) IsConnected(dst Input) bool {
	if dst == nil {
		return false
	}
	in := dst.sink()
	if in == nil {
		return false
	}

	ctx := o.node.ctx
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	return o.hasTarget(in)
}

func (o *outlet) hasTarget(in *inlet) bool {
	for _, t := range o.targets {
		if t == in {
			return true
		}
	}
	return false
}

func (o *outlet) removeTarget(in *inlet) {
	for i, t := range o.targets {
		if t == in {
			o.targets = append(o.targets[:i], o.targets[i+1:]...)
			return
		}
	}
}

// pull renders the owning node once per frame and returns the cached block.
// A node reached again while it is rendering contributes silence.
func (o *outlet) pull(frame int64, n int) []float64 {
	if o.frame == frame && o.n == n {
		return o.buf[:n]
	}
	if o.busy {
		return o.node.ctx.silence[:n]
	}

	o.busy = true
	buf := o.buf[:n]
	o.proc(frame, buf)
	o.busy = false
	o.frame, o.n = frame, n
	return buf
}

type inlet struct {
	node    *base
	sources []*outlet
}

func (in *inlet) removeSource(o *outlet) {
	for i, s := range in.sources {
		if s == o {
			in.sources = append(in.sources[:i], in.sources[i+1:]...)
			return
		}
	}
}

// mix sums every connected source into dst.
func (in *inlet) mix(frame int64, dst []float64) {
	core.Zero(dst)
	for _, src := range in.sources {
		core.Accumulate(dst, src.pull(frame, len(dst)))
	}
}
