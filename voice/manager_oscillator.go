package voice

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cwbudde/algo-voice/dsp/node"
)

// Kind names of the built-in managers.
const (
	KindOscillator        = "oscillator"
	KindAmplitudeEnvelope = "amplitude-envelope"
	KindFilter            = "filter"
	KindFilterEnvelope    = "filter-envelope"
	KindPitchEnvelope     = "pitch-envelope"
	KindLFO               = "lfo"
	KindOutputGain        = "output-gain"
	KindGeneric           = "generic"
)

// DefaultWaveform replaces unknown oscillator types.
const DefaultWaveform = node.Triangle

// OscillatorManager creates the audio-rate tone source of a voice.
//
// Settings: type (sine, square, sawtooth, triangle, pulse, white, pink,
// brown), frequency (Hz), detune (cents), width (pulse duty cycle), phase
// (turns) and portamento (seconds).
type OscillatorManager struct {
	managerBase
}

func (OscillatorManager) Kind() string { return KindOscillator }

func (OscillatorManager) Params() []string { return []string{"frequency", "detune", "width"} }

func parseWaveform(log *zerolog.Logger, name string) node.Waveform {
	w, ok := node.ParseWaveform(name)
	if !ok {
		log.Warn().Str("type", name).Stringer("fallback", DefaultWaveform).Msg("unknown oscillator type")
		return DefaultWaveform
	}
	return w
}

func (OscillatorManager) Create(env Env, d ComponentDescriptor) *NodeBundle {
	p := d.Params
	freq := p.GetNum("frequency", 440)
	if freq < 0 {
		return failed(fmt.Errorf("frequency %v is negative", freq))
	}

	osc := env.Audio.NewOscillator(parseWaveform(&env.Log, p.GetStr("type", DefaultWaveform.String())), freq)
	err := osc.Detune.SetValue(p.GetNum("detune", 0))
	if err == nil {
		err = osc.Width.SetValue(p.GetNum("width", 0.5))
	}
	if err == nil {
		err = osc.SetPortamento(p.GetNum("portamento", 0))
	}
	if err == nil {
		err = osc.SetPhase(p.GetNum("phase", 0))
	}
	if err != nil {
		osc.Dispose()
		return failed(err)
	}
	osc.Start()

	return &NodeBundle{
		Nodes:       map[string]node.Node{"oscillator": osc},
		AudioOutput: osc,
		ModInputs: map[string]*node.Param{
			"frequency": osc.Frequency,
			"detune":    osc.Detune,
			"width":     osc.Width,
		},
		log: env.Log,
	}
}

func (OscillatorManager) Update(b *NodeBundle, p Params) bool {
	osc, ok := nodeAs[*node.Oscillator](b, "oscillator")
	if !ok {
		return false
	}

	if name, ok := p.Str["type"]; ok {
		osc.SetWaveform(parseWaveform(&b.log, name))
	}
	if v, ok := p.LookupNum("portamento"); ok {
		if err := osc.SetPortamento(v); err != nil {
			b.log.Warn().Err(err).Msg("update")
			return false
		}
	}
	if v, ok := p.LookupNum("frequency"); ok {
		glide := osc.Portamento()
		if glide <= 0 {
			glide = RampTime
		}
		if err := osc.Frequency.RampTo(v, glide); err != nil {
			b.log.Warn().Err(err).Msg("update")
			return false
		}
	}
	if v, ok := p.LookupNum("phase"); ok {
		if err := osc.SetPhase(v); err != nil {
			return false
		}
	}
	return rampParam(b, osc.Detune, p, "detune") && rampParam(b, osc.Width, p, "width")
}

// Enable starts or stops the oscillator.
func (OscillatorManager) Enable(b *NodeBundle, enabled bool) bool {
	osc, ok := nodeAs[*node.Oscillator](b, "oscillator")
	if !ok {
		return false
	}
	if enabled {
		osc.Start()
	} else {
		osc.Stop()
	}
	return true
}
