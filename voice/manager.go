package voice

import (
	"github.com/rs/zerolog"

	"github.com/cwbudde/algo-voice/dsp/node"
)

// RampTime is the smoothing applied to audio-rate parameter updates, in seconds.
const RampTime = 0.02

// Env is what a Manager needs to allocate nodes.
type Env struct {
	Audio *node.Context
	Log   zerolog.Logger
}

// ComponentDescriptor describes one component to create.
type ComponentDescriptor struct {
	ID      string
	Kind    string
	Params  Params
	Enabled bool
}

// Manager owns creation, update, wiring, bypass, modulation and disposal
// for one component kind. Implementations report failure through return
// values and NodeBundle.Err and never panic.
type Manager interface {
	Kind() string
	// Params lists the parameters that can be addressed as modulation
	// targets ("component.param").
	Params() []string

	Create(env Env, d ComponentDescriptor) *NodeBundle
	Update(b *NodeBundle, p Params) bool
	ConnectPeers(b *NodeBundle, prev node.Output, next node.Input) bool
	Enable(b *NodeBundle, enabled bool) bool
	ConnectModulator(b *NodeBundle, param string, src node.Output) bool
	// DisconnectModulator succeeds when src is not connected.
	DisconnectModulator(b *NodeBundle, param string, src node.Output) bool
	// Dispose tolerates partial bundles and may be called more than once.
	Dispose(b *NodeBundle)
}

// Triggerable is implemented by managers whose nodes respond to note events.
type Triggerable interface {
	TriggerAttack(b *NodeBundle, at, velocity float64) bool
	TriggerRelease(b *NodeBundle, at float64) bool
}

// managerBase provides the contract behaviour shared by most kinds: audio
// peers, modulation through ModInputs and node disposal.
type managerBase struct{}

func (managerBase) ConnectPeers(b *NodeBundle, prev node.Output, next node.Input) bool {
	if !b.OK() {
		return false
	}
	if prev != nil && b.AudioInput != nil {
		if err := prev.Connect(b.AudioInput); err != nil {
			b.log.Warn().Err(err).Msg("connect input")
			return false
		}
	}
	if next != nil && b.AudioOutput != nil {
		if err := b.AudioOutput.Connect(next); err != nil {
			b.log.Warn().Err(err).Msg("connect output")
			if prev != nil && b.AudioInput != nil {
				_ = prev.Disconnect(b.AudioInput)
			}
			return false
		}
	}
	return true
}

func (managerBase) Enable(b *NodeBundle, _ bool) bool {
	return b.OK()
}

func (managerBase) ConnectModulator(b *NodeBundle, param string, src node.Output) bool {
	if !b.OK() || src == nil {
		return false
	}
	p, ok := b.ModInputs[param]
	if !ok || p == nil {
		b.log.Warn().Str("param", param).Msg("no such modulation input")
		return false
	}
	if err := src.Connect(p); err != nil {
		b.log.Warn().Err(err).Str("param", param).Msg("connect modulator")
		return false
	}
	return true
}

func (managerBase) DisconnectModulator(b *NodeBundle, param string, src node.Output) bool {
	if b == nil || src == nil {
		return false
	}
	p, ok := b.ModInputs[param]
	if !ok || p == nil {
		return false
	}
	return src.Disconnect(p) == nil
}

func (managerBase) Dispose(b *NodeBundle) {
	if b == nil {
		return
	}
	b.disposeNodes()
}

// rampParam ramps p to the number under key when present.
func rampParam(b *NodeBundle, p *node.Param, params Params, key string) bool {
	v, ok := params.LookupNum(key)
	if !ok {
		return true
	}
	if err := p.RampTo(v, RampTime); err != nil {
		b.log.Warn().Err(err).Str("param", key).Msg("update")
		return false
	}
	return true
}

func nodeAs[T node.Node](b *NodeBundle, role string) (T, bool) {
	var zero T
	if !b.OK() {
		return zero, false
	}
	n, ok := b.Nodes[role].(T)
	return n, ok
}
