package voice

// PortamentoSection is the voice-level glide section of a preset,
// {enabled, time}. It configures the oscillator stages and is never a
// component of its own.
const PortamentoSection = "portamento"

// withVoiceSettings returns preset with the portamento section folded into
// the "portamento" param of every oscillator stage in the chain. On build
// a disabled section leaves the oscillators alone; on update it turns the
// glide off.
func (b *Builder) withVoiceSettings(preset Preset, update bool) Preset {
	section, ok := preset[PortamentoSection]
	if !ok {
		return preset
	}

	out := make(Preset, len(preset))
	for id, cfg := range preset {
		if id != PortamentoSection {
			out[id] = cfg
		}
	}

	glide, set := section.Params.LookupNum("time")
	switch {
	case section.IsEnabled() && set:
	case update && section.IsDisabled():
		glide = 0
	default:
		return out
	}

	for _, id := range b.reg.Chain() {
		m := b.reg.Manager(id)
		if m == nil || m.Kind() != KindOscillator {
			continue
		}
		cfg := out.Section(id)
		cfg.Params = cfg.Params.Merge(ParseParams(map[string]any{"portamento": glide}))
		out[id] = cfg
	}
	return out
}
