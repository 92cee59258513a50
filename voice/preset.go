package voice

import "sort"

// ComponentConfig is one section of a preset. Enabled is nil when the
// section does not mention it.
type ComponentConfig struct {
	Enabled *bool
	Params  Params
}

// IsEnabled reports whether the section explicitly enables its component.
func (c ComponentConfig) IsEnabled() bool {
	return c.Enabled != nil && *c.Enabled
}

// IsDisabled reports whether the section explicitly disables its component.
func (c ComponentConfig) IsDisabled() bool {
	return c.Enabled != nil && !*c.Enabled
}

// Preset is a per-voice configuration keyed by component id.
type Preset map[string]ComponentConfig

// PresetFromMap converts a decoded document into a Preset. Each top-level
// value must be a table; its settings are read from a nested "params"
// table when present and from the section itself otherwise. "enabled" is
// always read from the section.
func PresetFromMap(raw map[string]any) Preset {
	p := make(Preset, len(raw))
	for id, v := range raw {
		section, ok := v.(map[string]any)
		if !ok {
			continue
		}

		var cfg ComponentConfig
		if e, ok := section["enabled"].(bool); ok {
			cfg.Enabled = &e
		}
		src := section
		if nested, ok := section["params"].(map[string]any); ok {
			src = nested
		}
		cfg.Params = ParseParams(src)
		delete(cfg.Params.Flag, "enabled")
		p[id] = cfg
	}
	return p
}

// Map converts the preset back to a document in the flat section form.
func (p Preset) Map() map[string]any {
	out := make(map[string]any, len(p))
	for id, cfg := range p {
		section := cfg.Params.Map()
		if cfg.Enabled != nil {
			section["enabled"] = *cfg.Enabled
		}
		out[id] = section
	}
	return out
}

// IDs returns the section ids in sorted order.
func (p Preset) IDs() []string {
	ids := make([]string, 0, len(p))
	for id := range p {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Section returns the section for id, or an empty one.
func (p Preset) Section(id string) ComponentConfig {
	if cfg, ok := p[id]; ok {
		return cfg
	}
	return ComponentConfig{Params: ParseParams(nil)}
}
