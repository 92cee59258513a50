package voice

import (
	"fmt"

	"github.com/cwbudde/algo-voice/dsp/core"
	"github.com/cwbudde/algo-voice/dsp/node"
)

// GenericManager is the template manager: a unity pass-through gain with a
// single "gain" parameter. It serves ids without a specialised manager.
type GenericManager struct {
	managerBase

	kind string
}

// NewGenericManager returns a pass-through manager reporting kind.
func NewGenericManager(kind string) *GenericManager {
	if kind == "" {
		kind = KindGeneric
	}
	return &GenericManager{kind: kind}
}

func (m *GenericManager) Kind() string { return m.kind }

func (m *GenericManager) Params() []string { return []string{"gain"} }

func (m *GenericManager) Create(env Env, d ComponentDescriptor) *NodeBundle {
	g := env.Audio.NewGain(d.Params.GetNum("gain", 1))
	return gainBundle(env, g)
}

func gainBundle(env Env, g *node.Gain) *NodeBundle {
	return &NodeBundle{
		Nodes:       map[string]node.Node{"gain": g},
		AudioInput:  g,
		AudioOutput: g,
		ModInputs:   map[string]*node.Param{"gain": g.Gain},
		log:         env.Log,
	}
}

func (m *GenericManager) Update(b *NodeBundle, p Params) bool {
	g, ok := nodeAs[*node.Gain](b, "gain")
	if !ok {
		return false
	}
	return rampParam(b, g.Gain, p, "gain")
}

// Enable bypasses the gain when disabled.
func (m *GenericManager) Enable(b *NodeBundle, enabled bool) bool {
	g, ok := nodeAs[*node.Gain](b, "gain")
	if !ok {
		return false
	}
	g.SetBypass(!enabled)
	return true
}

// OutputGainManager is the terminal stage: a linear gain, or a level in dB
// when "db" is given. Negative gains are rejected.
type OutputGainManager struct {
	GenericManager
}

// NewOutputGainManager returns the terminal gain manager.
func NewOutputGainManager() *OutputGainManager {
	return &OutputGainManager{GenericManager{kind: KindOutputGain}}
}

func outputLevel(p Params) (float64, bool, error) {
	if db, ok := p.LookupNum("db"); ok {
		return core.DBToLinear(db), true, nil
	}
	if p.Has("gain") {
		v, ok := p.LookupNum("gain")
		if !ok || v < 0 {
			return 0, false, fmt.Errorf("gain %v must be finite and non-negative", p.Num["gain"])
		}
		return v, true, nil
	}
	return 1, false, nil
}

func (m *OutputGainManager) Create(env Env, d ComponentDescriptor) *NodeBundle {
	level, _, err := outputLevel(d.Params)
	if err != nil {
		return failed(err)
	}
	return gainBundle(env, env.Audio.NewGain(level))
}

func (m *OutputGainManager) Update(b *NodeBundle, p Params) bool {
	g, ok := nodeAs[*node.Gain](b, "gain")
	if !ok {
		return false
	}
	level, set, err := outputLevel(p)
	if err != nil {
		b.log.Warn().Err(err).Msg("update")
		return false
	}
	if !set {
		return true
	}
	if err := g.Gain.RampTo(level, RampTime); err != nil {
		b.log.Warn().Err(err).Msg("update")
		return false
	}
	return true
}
