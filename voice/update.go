package voice

import (
	"errors"
	"fmt"
)

// Update applies a partial preset to a built voice. Present sections are
// forwarded to their manager's Update, an "enabled" key toggles the
// component, and modulators are created, removed or retargeted as their
// sections require. All failures are returned joined.
func (b *Builder) Update(g *VoiceGraph, preset Preset) error {
	if g == nil {
		return errors.New("voice: nil graph")
	}
	preset = b.withVoiceSettings(preset, true)
	var errs []error
	for _, id := range preset.IDs() {
		cfg := preset[id]
		var err error
		if b.reg.IsModulator(id) {
			err = b.updateModulator(g, id, cfg)
		} else {
			err = b.updateComponent(g, id, cfg)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *Builder) updateComponent(g *VoiceGraph, id string, cfg ComponentConfig) error {
	bundle := g.Components[id]
	if !bundle.OK() {
		if cfg.Params.Len() == 0 && cfg.Enabled == nil {
			return nil
		}
		return fmt.Errorf("voice: %s: component unavailable", id)
	}

	if cfg.Params.Len() > 0 && !guard(bundle, "update", func() bool { return bundle.manager.Update(bundle, cfg.Params) }) {
		return fmt.Errorf("voice: %s: update rejected", id)
	}
	if cfg.Enabled != nil && !guard(bundle, "enable", func() bool { return bundle.manager.Enable(bundle, *cfg.Enabled) }) {
		return fmt.Errorf("voice: %s: enable(%t) failed", id, *cfg.Enabled)
	}
	return nil
}

func (b *Builder) updateModulator(g *VoiceGraph, id string, cfg ComponentConfig) error {
	bundle, exists := g.Components[id]

	if cfg.IsDisabled() {
		if exists {
			b.unwire(g, id)
			disposeBundle(bundle)
			delete(g.Components, id)
			delete(g.ErrorState, id)
		}
		return nil
	}

	// Enabling a modulator whose creation failed creates it again.
	if exists && !bundle.OK() && cfg.IsEnabled() {
		disposeBundle(bundle)
		delete(g.Components, id)
		delete(g.ErrorState, id)
		exists = false
	}

	if !exists {
		if !cfg.IsEnabled() {
			return nil
		}
		c := b.create(g.log, id, cfg)
		if c.bundle != nil {
			g.Components[id] = c.bundle
		}
		if c.err != nil {
			g.record(c.err)
			return c.err
		}
		g.ErrorState[id] = nil
		return b.rewire(g, id, cfg.Params)
	}
	if !bundle.OK() {
		return fmt.Errorf("voice: %s: component unavailable", id)
	}

	if cfg.Params.Len() > 0 && !guard(bundle, "update", func() bool { return bundle.manager.Update(bundle, cfg.Params) }) {
		return fmt.Errorf("voice: %s: update rejected", id)
	}
	if cfg.Enabled != nil && !guard(bundle, "enable", func() bool { return bundle.manager.Enable(bundle, *cfg.Enabled) }) {
		return fmt.Errorf("voice: %s: enable(%t) failed", id, *cfg.Enabled)
	}

	if s, ok := cfg.Params.Str["target"]; ok {
		if edge, wired := g.edge(id); !wired || edge.Target.String() != s {
			return b.rewire(g, id, cfg.Params)
		}
	}
	return nil
}

// rewire drops the current edge of a modulator and wires it again from p.
func (b *Builder) rewire(g *VoiceGraph, id string, p Params) error {
	b.unwire(g, id)
	g.ErrorState[id] = nil
	b.wireModulator(g, id, p)
	return g.ErrorState[id]
}

// unwire disconnects every edge whose source is id.
func (b *Builder) unwire(g *VoiceGraph, id string) {
	kept := g.mods[:0]
	for _, m := range g.mods {
		if m.Source != id {
			kept = append(kept, m)
			continue
		}
		tb := g.Components[m.Target.Component]
		if !tb.OK() {
			continue
		}
		ok := guard(tb, "disconnect modulator", func() bool {
			return tb.manager.DisconnectModulator(tb, m.Target.Param, m.src)
		})
		if !ok {
			tb.log.Warn().Stringer("edge", m).Msg("disconnect modulator failed")
		}
	}
	g.mods = kept
}

func (g *VoiceGraph) edge(source string) (Modulation, bool) {
	for _, m := range g.mods {
		if m.Source == source {
			return m, true
		}
	}
	return Modulation{}, false
}
