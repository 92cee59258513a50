package voice

import (
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"github.com/cwbudde/algo-voice/dsp/node"
)

// Status summarises the outcome of one component of a built voice.
type Status int

const (
	// StatusOK means the component was created and fully wired.
	StatusOK Status = iota
	// StatusDegraded means the component exists but part of its wiring
	// failed, for instance an unresolved modulation target.
	StatusDegraded
	// StatusFailed means the component could not be created.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusDegraded:
		return "degraded"
	}
	return "failed"
}

// Modulation is one wired modulation edge.
type Modulation struct {
	Source string
	Output string
	Target Path

	src node.Output
}

func (m Modulation) String() string {
	return fmt.Sprintf("%s.%s -> %s", m.Source, m.Output, m.Target)
}

// VoiceGraph is the assembled voice. It is owned by a single voice and is
// not safe for concurrent use.
type VoiceGraph struct {
	ID         uint64
	Components map[string]*NodeBundle
	// ErrorState holds one entry per attempted component; nil means healthy.
	ErrorState map[string]error

	reg   *Registry
	log   zerolog.Logger
	chain []string
	mods  []Modulation
}

func newVoiceGraph(id uint64, reg *Registry, log zerolog.Logger) *VoiceGraph {
	return &VoiceGraph{
		ID:         id,
		Components: make(map[string]*NodeBundle),
		ErrorState: make(map[string]error),
		reg:        reg,
		log:        log,
	}
}

// Output returns the audio output of the terminal stage.
func (g *VoiceGraph) Output() node.Output {
	if b := g.Components[g.reg.Terminal()]; b.OK() {
		return b.AudioOutput
	}
	return nil
}

// ConnectTo routes the voice output into dst, typically the context's
// destination bus.
func (g *VoiceGraph) ConnectTo(dst node.Input) error {
	out := g.Output()
	if out == nil {
		return fmt.Errorf("voice %d: no output: %w", g.ID, ErrTerminalStage)
	}
	return out.Connect(dst)
}

// DisconnectFrom removes the route from the voice output to dst.
func (g *VoiceGraph) DisconnectFrom(dst node.Input) error {
	out := g.Output()
	if out == nil {
		return nil
	}
	return out.Disconnect(dst)
}

// Chain returns the chain stages that were wired, in signal order.
func (g *VoiceGraph) Chain() []string { return slices.Clone(g.chain) }

// Modulations returns the wired modulation edges.
func (g *VoiceGraph) Modulations() []Modulation { return slices.Clone(g.mods) }

// Err returns the error recorded for id.
func (g *VoiceGraph) Err(id string) error { return g.ErrorState[id] }

// Status reports the outcome for id. Ids that were never attempted are
// StatusFailed.
func (g *VoiceGraph) Status(id string) Status {
	err, attempted := g.ErrorState[id]
	b := g.Components[id]
	switch {
	case !attempted || !b.OK():
		return StatusFailed
	case err != nil:
		return StatusDegraded
	}
	return StatusOK
}

// Outcome returns the worst status over every attempted component.
func (g *VoiceGraph) Outcome() Status {
	worst := StatusOK
	for id := range g.ErrorState {
		worst = max(worst, g.Status(id))
	}
	return worst
}

// IDs returns the attempted component ids, chain stages first.
func (g *VoiceGraph) IDs() []string {
	ids := make([]string, 0, len(g.ErrorState))
	for _, id := range g.reg.Chain() {
		if _, ok := g.ErrorState[id]; ok {
			ids = append(ids, id)
		}
	}
	var rest []string
	for id := range g.ErrorState {
		if !g.reg.IsChain(id) {
			rest = append(rest, id)
		}
	}
	slices.Sort(rest)
	return append(ids, rest...)
}

// TriggerAttack starts a note on every healthy component that reacts to
// note events.
func (g *VoiceGraph) TriggerAttack(at, velocity float64) error {
	return g.trigger("attack", func(t Triggerable, b *NodeBundle) bool {
		return t.TriggerAttack(b, at, velocity)
	})
}

// TriggerRelease releases the note.
func (g *VoiceGraph) TriggerRelease(at float64) error {
	return g.trigger("release", func(t Triggerable, b *NodeBundle) bool {
		return t.TriggerRelease(b, at)
	})
}

func (g *VoiceGraph) trigger(what string, fn func(Triggerable, *NodeBundle) bool) error {
	var errs []error
	for _, id := range g.IDs() {
		b := g.Components[id]
		if !b.OK() || b.Disposed() {
			continue
		}
		t, ok := b.manager.(Triggerable)
		if !ok {
			continue
		}
		if !fn(t, b) {
			errs = append(errs, fmt.Errorf("voice: %s: trigger %s failed", id, what))
		}
	}
	return errors.Join(errs...)
}

// Dispose releases every component of the voice.
func (g *VoiceGraph) Dispose() {
	DisposeComponents(g.Components)
	g.mods = nil
	g.chain = nil
}

func (g *VoiceGraph) record(err *ComponentError) {
	g.ErrorState[err.Component] = err
	level := zerolog.WarnLevel
	if err.Kind == ManagerMissing || err.Kind == CreationFailure {
		level = zerolog.ErrorLevel
	}
	g.log.WithLevel(level).Str("component", err.Component).Stringer("kind", err.Kind).Err(err.Err).Msg("component error")
}
