package voice

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cwbudde/algo-voice/dsp/node"
)

// Fallbacks for invalid filter settings.
const (
	DefaultFilterType = node.Lowpass
	DefaultRolloff    = -12
)

// FilterManager creates the voice filter.
//
// Settings: type (lowpass, highpass, bandpass, lowshelf, highshelf, notch,
// allpass, peaking), frequency (Hz), Q or resonance, gain (dB), detune
// (cents) and rolloff (-12, -24, -48, -96).
type FilterManager struct {
	managerBase
}

func (FilterManager) Kind() string { return KindFilter }

func (FilterManager) Params() []string { return []string{"frequency", "Q", "gain", "detune"} }

func parseFilterType(log *zerolog.Logger, name string) node.FilterType {
	t, ok := node.ParseFilterType(name)
	if !ok {
		log.Warn().Str("type", name).Stringer("fallback", DefaultFilterType).Msg("unknown filter type")
		return DefaultFilterType
	}
	return t
}

func parseRolloff(log *zerolog.Logger, v float64) int {
	r := int(v)
	if float64(r) != v || !node.ValidRolloff(r) {
		log.Warn().Float64("rolloff", v).Int("fallback", DefaultRolloff).Msg("unsupported rolloff")
		return DefaultRolloff
	}
	return r
}

// resonance reads Q, accepting "resonance" as an alias.
func resonance(p Params) (float64, bool) {
	if v, ok := p.LookupNum("Q"); ok {
		return v, true
	}
	return p.LookupNum("resonance")
}

func (FilterManager) Create(env Env, d ComponentDescriptor) *NodeBundle {
	p := d.Params
	freq := p.GetNum("frequency", 5000)
	q, ok := resonance(p)
	if !ok {
		q = 1
	}
	if freq <= 0 || q <= 0 {
		return failed(fmt.Errorf("frequency %v and Q %v must be positive", freq, q))
	}

	f := env.Audio.NewFilter(parseFilterType(&env.Log, p.GetStr("type", DefaultFilterType.String())), freq)
	err := f.Q.SetValue(q)
	if err == nil {
		err = f.Gain.SetValue(p.GetNum("gain", 0))
	}
	if err == nil {
		err = f.Detune.SetValue(p.GetNum("detune", 0))
	}
	if err == nil {
		err = f.SetRolloff(parseRolloff(&env.Log, p.GetNum("rolloff", DefaultRolloff)))
	}
	if err != nil {
		f.Dispose()
		return failed(err)
	}

	return &NodeBundle{
		Nodes:       map[string]node.Node{"filter": f},
		AudioInput:  f,
		AudioOutput: f,
		ModInputs: map[string]*node.Param{
			"frequency": f.Frequency,
			"Q":         f.Q,
			"gain":      f.Gain,
			"detune":    f.Detune,
		},
		log: env.Log,
	}
}

func (FilterManager) Update(b *NodeBundle, p Params) bool {
	f, ok := nodeAs[*node.Filter](b, "filter")
	if !ok {
		return false
	}

	if name, ok := p.Str["type"]; ok {
		f.SetType(parseFilterType(&b.log, name))
	}
	if v, ok := p.LookupNum("rolloff"); ok {
		if err := f.SetRolloff(parseRolloff(&b.log, v)); err != nil {
			return false
		}
	}
	if q, ok := resonance(p); ok {
		if q <= 0 {
			b.log.Warn().Float64("Q", q).Msg("Q must be positive")
			return false
		}
		if err := f.Q.RampTo(q, RampTime); err != nil {
			b.log.Warn().Err(err).Msg("update")
			return false
		}
	}
	return rampParam(b, f.Frequency, p, "frequency") &&
		rampParam(b, f.Gain, p, "gain") &&
		rampParam(b, f.Detune, p, "detune")
}

// Enable bypasses the filter when disabled.
func (FilterManager) Enable(b *NodeBundle, enabled bool) bool {
	f, ok := nodeAs[*node.Filter](b, "filter")
	if !ok {
		return false
	}
	f.SetBypass(!enabled)
	return true
}
