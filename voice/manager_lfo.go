package voice

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cwbudde/algo-voice/dsp/node"
)

// LFOManager creates a low-frequency modulation source: an LFO mapped into
// [min, max] followed by a depth gain. The modulation target is normally
// given by the "target" setting ("component.param").
type LFOManager struct {
	managerBase
}

func (LFOManager) Kind() string { return KindLFO }

func (LFOManager) Params() []string { return []string{"frequency", "depth"} }

func parseLFOWaveform(log *zerolog.Logger, name string) node.Waveform {
	w, ok := node.ParseWaveform(name)
	if !ok || !w.Periodic() {
		log.Warn().Str("type", name).Msg("unsupported lfo waveform, using sine")
		return node.Sine
	}
	return w
}

func (LFOManager) Create(env Env, d ComponentDescriptor) *NodeBundle {
	p := d.Params
	freq := p.GetNum("frequency", 5)
	lo, hi := p.GetNum("min", -1), p.GetNum("max", 1)
	if freq < 0 {
		return failed(fmt.Errorf("frequency %v is negative", freq))
	}
	if lo > hi {
		return failed(fmt.Errorf("min %v exceeds max %v", lo, hi))
	}

	lfo := env.Audio.NewLFO(parseLFOWaveform(&env.Log, p.GetStr("type", "sine")), freq, lo, hi)
	depth := env.Audio.NewGain(p.GetNum("depth", 0.01))
	err := lfo.Connect(depth)
	if err == nil {
		err = lfo.SetPhase(p.GetNum("phase", 0))
	}
	if err != nil {
		lfo.Dispose()
		depth.Dispose()
		return failed(err)
	}
	lfo.Start()

	return &NodeBundle{
		Nodes:      map[string]node.Node{"lfo": lfo, "depth": depth},
		ModInputs:  map[string]*node.Param{"frequency": lfo.Frequency, "depth": depth.Gain},
		ModOutputs: map[string]node.Output{"output": depth},
		log:        env.Log,
	}
}

func (LFOManager) Update(b *NodeBundle, p Params) bool {
	lfo, ok := nodeAs[*node.LFO](b, "lfo")
	if !ok {
		return false
	}
	depth, ok := nodeAs[*node.Gain](b, "depth")
	if !ok {
		return false
	}

	if name, ok := p.Str["type"]; ok {
		if err := lfo.SetWaveform(parseLFOWaveform(&b.log, name)); err != nil {
			return false
		}
	}
	if p.Has("min") || p.Has("max") {
		lo, hi := lfo.Range()
		lo, hi = p.GetNum("min", lo), p.GetNum("max", hi)
		if lo > hi {
			b.log.Warn().Float64("min", lo).Float64("max", hi).Msg("lfo range inverted")
			return false
		}
		if err := lfo.SetRange(lo, hi); err != nil {
			return false
		}
	}
	return rampParam(b, lfo.Frequency, p, "frequency") && rampParam(b, depth.Gain, p, "depth")
}

// Enable starts or stops the LFO.
func (LFOManager) Enable(b *NodeBundle, enabled bool) bool {
	lfo, ok := nodeAs[*node.LFO](b, "lfo")
	if !ok {
		return false
	}
	if enabled {
		lfo.Start()
	} else {
		lfo.Stop()
	}
	return true
}
