package voice

import (
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
)

var (
	// ErrSealed is returned when a registry is changed after a Builder has
	// been created from it.
	ErrSealed = errors.New("voice: registry is sealed")
	// ErrInvalidTopology is returned for malformed chain and modulator sets.
	ErrInvalidTopology = errors.New("voice: invalid topology")

	errDuplicateComponent = errors.New("duplicate component id")
)

// Topology is the fixed shape of every voice: the ordered audio chain, the
// terminal stage whose output is the voice output, and the modulation
// sources.
type Topology struct {
	Chain      []string
	Terminal   string
	Modulators []string
}

// Registry maps component ids to their managers and holds the voice
// topology and the default modulation routes. It becomes read-only once a
// Builder uses it and may then be shared by concurrent builds.
type Registry struct {
	topo     Topology
	managers map[string]Manager
	params   map[string][]string
	routes   map[string]Route
	sealed   atomic.Bool
}

// NewRegistry creates an empty registry for topo. An empty Terminal
// defaults to the last chain id.
func NewRegistry(topo Topology) (*Registry, error) {
	t := Topology{
		Chain:      slices.Clone(topo.Chain),
		Terminal:   topo.Terminal,
		Modulators: slices.Clone(topo.Modulators),
	}
	if len(t.Chain) == 0 {
		return nil, fmt.Errorf("%w: empty chain", ErrInvalidTopology)
	}
	if t.Terminal == "" {
		t.Terminal = t.Chain[len(t.Chain)-1]
	}

	seen := make(map[string]bool, len(t.Chain)+len(t.Modulators))
	for _, id := range slices.Concat(t.Chain, t.Modulators) {
		if id == "" {
			return nil, fmt.Errorf("%w: empty component id", ErrInvalidTopology)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: %s listed twice", ErrInvalidTopology, id)
		}
		seen[id] = true
	}
	if !slices.Contains(t.Chain, t.Terminal) {
		return nil, fmt.Errorf("%w: terminal %s is not in the chain", ErrInvalidTopology, t.Terminal)
	}

	return &Registry{
		topo:     t,
		managers: make(map[string]Manager),
		params:   make(map[string][]string),
		routes:   make(map[string]Route),
	}, nil
}

// Register adds the manager for a component id.
func (r *Registry) Register(id string, m Manager) error {
	if r.sealed.Load() {
		return ErrSealed
	}
	if id == "" {
		return errors.New("voice: empty component id")
	}
	if m == nil {
		return errors.New("voice: nil manager")
	}
	if _, exists := r.managers[id]; exists {
		return fmt.Errorf("voice: %w: %s", errDuplicateComponent, id)
	}

	r.managers[id] = m
	r.params[id] = slices.Clone(m.Params())
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(id string, m Manager) {
	if err := r.Register(id, m); err != nil {
		panic("voice registry: " + err.Error())
	}
}

// SetRoute sets the default target of a modulator. The target param is
// checked right away when the target component is already registered and
// by Validate otherwise.
func (r *Registry) SetRoute(modulator string, route Route) error {
	if r.sealed.Load() {
		return ErrSealed
	}
	if !r.IsModulator(modulator) {
		return fmt.Errorf("voice: %s is not a modulator", modulator)
	}
	if route.Output == "" || route.Target.Component == "" || route.Target.Param == "" {
		return fmt.Errorf("voice: incomplete route for %s", modulator)
	}
	if _, ok := r.managers[route.Target.Component]; ok && !r.HasParam(route.Target.Component, route.Target.Param) {
		return fmt.Errorf("voice: route %s: %s has no param %q", modulator, route.Target.Component, route.Target.Param)
	}
	r.routes[modulator] = route
	return nil
}

// Manager returns the manager registered for id, or nil.
func (r *Registry) Manager(id string) Manager {
	return r.managers[id]
}

// Chain returns the audio chain order.
func (r *Registry) Chain() []string { return slices.Clone(r.topo.Chain) }

// Terminal returns the id of the last required stage.
func (r *Registry) Terminal() string { return r.topo.Terminal }

// Modulators returns the modulation source ids.
func (r *Registry) Modulators() []string { return slices.Clone(r.topo.Modulators) }

// IsModulator reports whether id is a modulation source.
func (r *Registry) IsModulator(id string) bool { return slices.Contains(r.topo.Modulators, id) }

// IsChain reports whether id is a chain stage.
func (r *Registry) IsChain(id string) bool { return slices.Contains(r.topo.Chain, id) }

// Route returns the default route of a modulator.
func (r *Registry) Route(modulator string) (Route, bool) {
	route, ok := r.routes[modulator]
	return route, ok
}

// HasParam reports whether the manager registered for id declares param.
func (r *Registry) HasParam(id, param string) bool {
	return slices.Contains(r.params[id], param)
}

// Validate checks that every chain stage has a manager and that every
// route points at a declared param of a registered component.
func (r *Registry) Validate() error {
	var errs []error
	for _, id := range r.topo.Chain {
		if r.managers[id] == nil {
			errs = append(errs, fmt.Errorf("%w: chain stage %s", ErrManagerMissing, id))
		}
	}
	for _, mod := range r.topo.Modulators {
		route, ok := r.routes[mod]
		if !ok {
			continue
		}
		if !r.HasParam(route.Target.Component, route.Target.Param) {
			errs = append(errs, fmt.Errorf("route %s: unknown target %s", mod, route.Target))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("voice: invalid registry: %w", errors.Join(errs...))
	}
	return nil
}

func (r *Registry) seal() { r.sealed.Store(true) }

// Sealed reports whether the registry is read-only.
func (r *Registry) Sealed() bool { return r.sealed.Load() }
