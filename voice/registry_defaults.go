package voice

// Component ids of the default voice.
const (
	IDOscillator     = "oscillator"
	IDAmplitudeEnv   = "amplitudeEnv"
	IDFilter         = "filter"
	IDOutputGain     = "outputGain"
	IDPitchEnvelope  = "pitchEnvelope"
	IDFilterEnvelope = "filterEnvelope"
	IDLFO1           = "lfo1"
	IDLFO2           = "lfo2"
)

// DefaultTopology returns the chain oscillator → amplitude envelope →
// filter → output gain with two envelopes and two LFOs as modulators.
func DefaultTopology() Topology {
	return Topology{
		Chain:      []string{IDOscillator, IDAmplitudeEnv, IDFilter, IDOutputGain},
		Terminal:   IDOutputGain,
		Modulators: []string{IDPitchEnvelope, IDFilterEnvelope, IDLFO1, IDLFO2},
	}
}

type registryConfig struct {
	topo     Topology
	managers map[string]Manager
	routes   map[string]Route
}

// RegistryOption configures the default registry.
type RegistryOption func(*registryConfig)

// WithTopology replaces the default topology. Built-in managers are only
// registered for ids the topology names.
func WithTopology(t Topology) RegistryOption {
	return func(c *registryConfig) { c.topo = t }
}

// WithManager registers m for id, replacing the built-in manager.
func WithManager(id string, m Manager) RegistryOption {
	return func(c *registryConfig) { c.managers[id] = m }
}

// WithRoute replaces the default route of a modulator.
func WithRoute(modulator string, r Route) RegistryOption {
	return func(c *registryConfig) { c.routes[modulator] = r }
}

func builtinManagers() map[string]Manager {
	return map[string]Manager{
		IDOscillator:     OscillatorManager{},
		IDAmplitudeEnv:   AmpEnvManager{},
		IDFilter:         FilterManager{},
		IDOutputGain:     NewOutputGainManager(),
		IDPitchEnvelope:  NewPitchEnvelopeManager(),
		IDFilterEnvelope: NewFilterEnvelopeManager(),
		IDLFO1:           LFOManager{},
		IDLFO2:           LFOManager{},
	}
}

// DefaultRoutes returns the built-in modulator → target conventions. LFOs
// have none and take their target from their settings.
func DefaultRoutes() map[string]Route {
	return map[string]Route{
		IDPitchEnvelope:  {Output: "pitch", Target: Path{Component: IDOscillator, Param: "detune"}},
		IDFilterEnvelope: {Output: "output", Target: Path{Component: IDFilter, Param: "frequency"}},
	}
}

// DefaultRegistry returns a Registry with the built-in managers registered
// for every id of the topology. Ids without a built-in manager get a
// GenericManager. Routes are kept only when their target is registered.
func DefaultRegistry(opts ...RegistryOption) (*Registry, error) {
	cfg := &registryConfig{
		topo:     DefaultTopology(),
		managers: builtinManagers(),
		routes:   DefaultRoutes(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	r, err := NewRegistry(cfg.topo)
	if err != nil {
		return nil, err
	}
	for _, id := range append(r.Chain(), r.Modulators()...) {
		m := cfg.managers[id]
		if m == nil {
			m = NewGenericManager(KindGeneric)
		}
		if err := r.Register(id, m); err != nil {
			return nil, err
		}
	}
	for _, mod := range r.Modulators() {
		route, ok := cfg.routes[mod]
		if !ok || r.Manager(route.Target.Component) == nil {
			continue
		}
		if err := r.SetRoute(mod, route); err != nil {
			return nil, err
		}
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// MustDefaultRegistry is like DefaultRegistry but panics on error.
func MustDefaultRegistry(opts ...RegistryOption) *Registry {
	r, err := DefaultRegistry(opts...)
	if err != nil {
		panic("voice registry: " + err.Error())
	}
	return r
}
