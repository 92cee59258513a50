package voice

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-voice/dsp/node"
)

// Builder assembles voices from presets. One Builder may serve concurrent
// builds; each resulting VoiceGraph belongs to one voice.
type Builder struct {
	reg         *Registry
	audio       *node.Context
	log         zerolog.Logger
	concurrency int

	voices atomic.Uint64
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) BuilderOption {
	return func(b *Builder) { b.log = l }
}

// WithCreateConcurrency creates up to n components of a voice in parallel.
// Values below 2 create sequentially.
func WithCreateConcurrency(n int) BuilderOption {
	return func(b *Builder) { b.concurrency = n }
}

// NewBuilder validates reg, seals it against further changes and returns a
// Builder that allocates nodes in audio.
func NewBuilder(reg *Registry, audio *node.Context, opts ...BuilderOption) (*Builder, error) {
	if reg == nil {
		return nil, errors.New("voice: nil registry")
	}
	if audio == nil {
		return nil, errors.New("voice: nil audio context")
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}

	b := &Builder{reg: reg, audio: audio, log: zerolog.Nop(), concurrency: 1}
	for _, opt := range opts {
		opt(b)
	}
	reg.seal()
	return b, nil
}

// Registry returns the sealed registry.
func (b *Builder) Registry() *Registry { return b.reg }

// BuildVoiceChain creates and wires the components of one voice.
//
// Failures of individual components are recorded in the graph's
// ErrorState and never returned. The build only fails when the terminal
// stage is missing or unhealthy; every created component is then disposed
// and the returned error wraps ErrTerminalStage.
func (b *Builder) BuildVoiceChain(preset Preset) (*VoiceGraph, error) {
	id := b.voices.Add(1)
	log := b.log.With().Uint64("voice", id).Logger()
	g := newVoiceGraph(id, b.reg, log)
	preset = b.withVoiceSettings(preset, false)

	ids := b.componentSet(preset)
	b.createAll(g, ids, preset)
	b.assembleChain(g)
	for _, cid := range ids {
		if b.reg.IsModulator(cid) {
			b.wireModulator(g, cid, preset.Section(cid).Params)
		}
	}

	if err := b.validateTerminal(g); err != nil {
		DisposeComponents(g.Components)
		log.Error().Err(err).Msg("voice build failed")
		return nil, err
	}
	log.Debug().Strs("chain", g.chain).Int("modulations", len(g.mods)).Msg("voice built")
	return g, nil
}

// componentSet returns the chain ids in order followed by every other
// explicitly enabled section, sorted.
func (b *Builder) componentSet(preset Preset) []string {
	ids := b.reg.Chain()
	for _, id := range preset.IDs() {
		if preset[id].IsEnabled() && !b.reg.IsChain(id) {
			ids = append(ids, id)
		}
	}
	return ids
}

type created struct {
	bundle *NodeBundle
	err    *ComponentError
}

func (b *Builder) createAll(g *VoiceGraph, ids []string, preset Preset) {
	results := make(map[string]created, len(ids))
	if b.concurrency > 1 {
		var (
			mu sync.Mutex
			eg errgroup.Group
		)
		eg.SetLimit(b.concurrency)
		for _, id := range ids {
			eg.Go(func() error {
				c := b.create(g.log, id, preset.Section(id))
				mu.Lock()
				results[id] = c
				mu.Unlock()
				return nil
			})
		}
		_ = eg.Wait()
	} else {
		for _, id := range ids {
			results[id] = b.create(g.log, id, preset.Section(id))
		}
	}

	for _, id := range ids {
		c := results[id]
		if c.bundle != nil {
			g.Components[id] = c.bundle
		}
		if c.err != nil {
			g.record(c.err)
			continue
		}
		g.ErrorState[id] = nil

		if b.reg.IsChain(id) && preset.Section(id).IsDisabled() {
			if !c.bundle.manager.Enable(c.bundle, false) {
				c.bundle.log.Warn().Msg("disable failed")
			}
		}
	}
}

// create runs one manager's Create behind a recover boundary.
func (b *Builder) create(log zerolog.Logger, id string, cfg ComponentConfig) created {
	m := b.reg.Manager(id)
	if m == nil {
		return created{err: componentErr(id, ManagerMissing, nil)}
	}

	clog := log.With().Str("component", id).Str("kind", m.Kind()).Logger()
	d := ComponentDescriptor{ID: id, Kind: m.Kind(), Params: cfg.Params, Enabled: !cfg.IsDisabled()}

	bundle, perr := safeCreate(m, Env{Audio: b.audio, Log: clog}, d)
	switch {
	case perr != nil:
		bundle = failed(perr)
	case bundle == nil:
		bundle = failed(errors.New("manager returned no bundle"))
	}
	bundle.ID = id
	bundle.Kind = m.Kind()
	bundle.manager = m
	bundle.log = clog

	if bundle.Err != nil {
		return created{bundle: bundle, err: componentErr(id, CreationFailure, bundle.Err)}
	}
	return created{bundle: bundle}
}

func safeCreate(m Manager, env Env, d ComponentDescriptor) (b *NodeBundle, err error) {
	defer func() {
		if r := recover(); r != nil {
			b, err = nil, fmt.Errorf("create panicked: %v", r)
		}
	}()
	return m.Create(env, d), nil
}

// guard calls fn and turns a panic into a false result.
func guard(b *NodeBundle, what string, fn func() bool) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().Interface("panic", r).Msg(what + " panicked")
			ok = false
		}
	}()
	return fn()
}

// assembleChain connects the healthy chain stages in order. Stages without
// audio ports are transparent; a stage that cannot be connected is
// bypassed.
func (b *Builder) assembleChain(g *VoiceGraph) {
	var prev node.Output
	for _, id := range b.reg.Chain() {
		bundle := g.Components[id]
		if !bundle.OK() || g.ErrorState[id] != nil {
			continue
		}
		ok := guard(bundle, "connect peers", func() bool {
			return bundle.manager.ConnectPeers(bundle, prev, nil)
		})
		if !ok {
			g.record(componentErrf(id, ConnectionFailure, "cannot connect to the previous stage"))
			continue
		}
		g.chain = append(g.chain, id)
		if bundle.AudioOutput != nil {
			prev = bundle.AudioOutput
		}
	}
}

// modulationRoute returns the output and target of a modulator. An
// explicit "target" setting wins over the registry route.
func (b *Builder) modulationRoute(id string, bundle *NodeBundle, p Params) (string, Path, *ComponentError) {
	route, hasRoute := b.reg.Route(id)

	output := route.Output
	if s, ok := p.Str["output"]; ok {
		output = s
	}
	if output == "" {
		output = soleOutput(bundle)
	}

	target := route.Target
	if s, ok := p.Str["target"]; ok {
		t, err := ParsePath(s)
		if err != nil {
			return "", Path{}, componentErr(id, ModulationTargetUnresolved, err)
		}
		target = t
	} else if !hasRoute {
		return "", Path{}, componentErrf(id, ModulationTargetUnresolved, "no target configured")
	}
	return output, target, nil
}

func soleOutput(b *NodeBundle) string {
	if len(b.ModOutputs) == 1 {
		for name := range b.ModOutputs {
			return name
		}
	}
	return "output"
}

// wireModulator connects a healthy modulator to its target. Every failure
// is recorded on the modulator and leaves the rest of the voice intact.
func (b *Builder) wireModulator(g *VoiceGraph, id string, p Params) {
	bundle := g.Components[id]
	if !bundle.OK() {
		return
	}

	m, cerr := b.connectModulation(g, id, bundle, p)
	if cerr != nil {
		g.record(cerr)
		return
	}
	g.mods = append(g.mods, m)
	bundle.log.Debug().Stringer("edge", m).Msg("modulation wired")
}

func (b *Builder) connectModulation(g *VoiceGraph, id string, bundle *NodeBundle, p Params) (Modulation, *ComponentError) {
	output, target, cerr := b.modulationRoute(id, bundle, p)
	if cerr != nil {
		return Modulation{}, cerr
	}

	src := bundle.ModOutputs[output]
	if src == nil {
		return Modulation{}, componentErrf(id, ModulationTargetUnresolved, "no modulation output %q", output)
	}
	tb := g.Components[target.Component]
	if !tb.OK() {
		return Modulation{}, componentErrf(id, ModulationTargetUnresolved, "target %s is not available", target.Component)
	}
	if !b.reg.HasParam(target.Component, target.Param) {
		return Modulation{}, componentErrf(id, ModulationTargetUnresolved, "%s has no param %q", target.Component, target.Param)
	}
	if _, err := resolveParam(g.Components, target); err != nil {
		return Modulation{}, componentErr(id, ModulationTargetUnresolved, err)
	}

	ok := guard(tb, "connect modulator", func() bool {
		return tb.manager.ConnectModulator(tb, target.Param, src)
	})
	if !ok {
		return Modulation{}, componentErrf(id, ConnectionFailure, "cannot connect to %s", target)
	}
	return Modulation{Source: id, Output: output, Target: target, src: src}, nil
}

func (b *Builder) validateTerminal(g *VoiceGraph) error {
	term := b.reg.Terminal()
	bundle := g.Components[term]
	cause := g.ErrorState[term]
	switch {
	case bundle == nil && cause == nil:
		cause = errors.New("not created")
	case bundle != nil && bundle.Err != nil && cause == nil:
		cause = bundle.Err
	case cause == nil && !slices.Contains(g.chain, term):
		cause = errors.New("not wired")
	}
	if cause == nil {
		return nil
	}
	return componentErr(term, FatalTerminalStageFailure, cause)
}

// FindParamByPath resolves path against components and logs why a path
// does not resolve.
func (b *Builder) FindParamByPath(components map[string]*NodeBundle, path string) any {
	v, err := ResolvePath(components, path)
	if err != nil {
		b.log.Warn().Err(err).Str("path", path).Msg("parameter lookup failed")
		return nil
	}
	return v
}
