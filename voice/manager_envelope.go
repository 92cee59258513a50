package voice

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cwbudde/algo-voice/dsp/node"
)

// readADSR reads attack, decay, sustain, release and the three curve
// settings on top of def. Unknown curves keep their default with a warning.
func readADSR(log *zerolog.Logger, p Params, def node.ADSR) node.ADSR {
	a := def
	a.Attack = p.GetNum("attack", def.Attack)
	a.Decay = p.GetNum("decay", def.Decay)
	a.Sustain = p.GetNum("sustain", def.Sustain)
	a.Release = p.GetNum("release", def.Release)
	a.AttackCurve = readCurve(log, p, "attackCurve", def.AttackCurve)
	a.DecayCurve = readCurve(log, p, "decayCurve", def.DecayCurve)
	a.ReleaseCurve = readCurve(log, p, "releaseCurve", def.ReleaseCurve)
	return a
}

func readCurve(log *zerolog.Logger, p Params, key string, def node.Curve) node.Curve {
	name, ok := p.Str[key]
	if !ok {
		return def
	}
	c, ok := node.ParseCurve(name)
	if !ok {
		log.Warn().Str(key, name).Stringer("fallback", def).Msg("unknown envelope curve")
		return def
	}
	return c
}

// hasShapeKey reports whether p touches any envelope timing setting.
func hasShapeKey(p Params) bool {
	for _, k := range [...]string{"attack", "decay", "sustain", "release", "attackCurve", "decayCurve", "releaseCurve"} {
		if p.Has(k) {
			return true
		}
	}
	return false
}

type envelopeShaper interface {
	Shape() node.ADSR
	SetShape(node.ADSR) error
}

func updateShape(b *NodeBundle, e envelopeShaper, p Params) bool {
	if !hasShapeKey(p) {
		return true
	}
	if err := e.SetShape(readADSR(&b.log, p, e.Shape())); err != nil {
		b.log.Warn().Err(err).Msg("update envelope")
		return false
	}
	return true
}

// AmpEnvManager creates the amplitude envelope stage of the chain.
type AmpEnvManager struct {
	managerBase
}

// DefaultAmpEnvelope is the amplitude shape used for missing settings.
var DefaultAmpEnvelope = node.ADSR{Attack: 0.01, Decay: 0.1, Sustain: 0.7, Release: 0.5}

func (AmpEnvManager) Kind() string { return KindAmplitudeEnvelope }

func (AmpEnvManager) Params() []string { return nil }

func (AmpEnvManager) Create(env Env, d ComponentDescriptor) *NodeBundle {
	e, err := env.Audio.NewAmplitudeEnvelope(readADSR(&env.Log, d.Params, DefaultAmpEnvelope))
	if err != nil {
		return failed(err)
	}
	return &NodeBundle{
		Nodes:       map[string]node.Node{"envelope": e},
		AudioInput:  e,
		AudioOutput: e,
		log:         env.Log,
	}
}

func (AmpEnvManager) Update(b *NodeBundle, p Params) bool {
	e, ok := nodeAs[*node.AmplitudeEnvelope](b, "envelope")
	if !ok {
		return false
	}
	return updateShape(b, e, p)
}

// Enable bypasses the envelope when disabled.
func (AmpEnvManager) Enable(b *NodeBundle, enabled bool) bool {
	e, ok := nodeAs[*node.AmplitudeEnvelope](b, "envelope")
	if !ok {
		return false
	}
	e.SetBypass(!enabled)
	return true
}

func (AmpEnvManager) TriggerAttack(b *NodeBundle, at, velocity float64) bool {
	e, ok := nodeAs[*node.AmplitudeEnvelope](b, "envelope")
	return ok && e.TriggerAttack(at, velocity) == nil
}

func (AmpEnvManager) TriggerRelease(b *NodeBundle, at float64) bool {
	e, ok := nodeAs[*node.AmplitudeEnvelope](b, "envelope")
	return ok && e.TriggerRelease(at) == nil
}

// EnvelopeModulatorManager creates a control envelope scaled by an amount,
// used as a modulation source. Its only connection point is the named
// output; it accepts no modulation itself.
type EnvelopeModulatorManager struct {
	managerBase

	kind   string
	output string
	shape  node.ADSR
	amount float64
}

// NewFilterEnvelopeManager returns the manager of the filter envelope. Its
// output is the envelope level times amount, in Hz.
func NewFilterEnvelopeManager() *EnvelopeModulatorManager {
	return &EnvelopeModulatorManager{
		kind:   KindFilterEnvelope,
		output: "output",
		shape: node.ADSR{
			Attack: 0.1, Decay: 0.2, Sustain: 0.5, Release: 0.5,
			AttackCurve: node.Linear, DecayCurve: node.Exponential, ReleaseCurve: node.Exponential,
		},
	}
}

// NewPitchEnvelopeManager returns the manager of the pitch envelope. Its
// output is the envelope level times amount, in cents.
func NewPitchEnvelopeManager() *EnvelopeModulatorManager {
	return &EnvelopeModulatorManager{
		kind:   KindPitchEnvelope,
		output: "pitch",
		shape:  node.ADSR{Attack: 0.1, Decay: 0.1, Sustain: 0.5, Release: 0.2},
		amount: 100,
	}
}

func (m *EnvelopeModulatorManager) Kind() string { return m.kind }

func (m *EnvelopeModulatorManager) Params() []string { return nil }

// Output returns the name of the modulation output.
func (m *EnvelopeModulatorManager) Output() string { return m.output }

func (m *EnvelopeModulatorManager) Create(env Env, d ComponentDescriptor) *NodeBundle {
	amount := d.Params.GetNum("amount", m.amount)
	e, err := env.Audio.NewEnvelope(readADSR(&env.Log, d.Params, m.shape))
	if err != nil {
		return failed(err)
	}
	scale := env.Audio.NewGain(amount)
	if err := e.Connect(scale); err != nil {
		e.Dispose()
		scale.Dispose()
		return failed(fmt.Errorf("connect envelope amount: %w", err))
	}
	return &NodeBundle{
		Nodes:      map[string]node.Node{"envelope": e, "amount": scale},
		ModOutputs: map[string]node.Output{m.output: scale},
		log:        env.Log,
	}
}

func (m *EnvelopeModulatorManager) Update(b *NodeBundle, p Params) bool {
	e, ok := nodeAs[*node.Envelope](b, "envelope")
	if !ok {
		return false
	}
	scale, ok := nodeAs[*node.Gain](b, "amount")
	if !ok {
		return false
	}
	return updateShape(b, e, p) && rampParam(b, scale.Gain, p, "amount")
}

func (m *EnvelopeModulatorManager) ConnectModulator(*NodeBundle, string, node.Output) bool {
	return false
}

func (m *EnvelopeModulatorManager) DisconnectModulator(*NodeBundle, string, node.Output) bool {
	return false
}

func (m *EnvelopeModulatorManager) TriggerAttack(b *NodeBundle, at, _ float64) bool {
	e, ok := nodeAs[*node.Envelope](b, "envelope")
	return ok && e.TriggerAttack(at, 1) == nil
}

func (m *EnvelopeModulatorManager) TriggerRelease(b *NodeBundle, at float64) bool {
	e, ok := nodeAs[*node.Envelope](b, "envelope")
	return ok && e.TriggerRelease(at) == nil
}
