package node

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/cwbudde/algo-vecmath"
	"github.com/cwbudde/algo-voice/dsp/core"
)

// Curve shapes an envelope stage.
type Curve int

const (
	Linear Curve = iota
	Exponential
)

// ParseCurve resolves "linear" or "exponential".
func ParseCurve(name string) (Curve, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "linear":
		return Linear, true
	case "exponential":
		return Exponential, true
	}
	return Linear, false
}

func (c Curve) String() string {
	if c == Exponential {
		return "exponential"
	}
	return "linear"
}

// curveSharpness controls how quickly an exponential stage approaches its
// target; the stage still lands exactly on the target at its end time.
const curveSharpness = 5.0

func (c Curve) progress(x float64) float64 {
	if c == Linear {
		return x
	}
	return (1 - math.Exp(-curveSharpness*x)) / (1 - math.Exp(-curveSharpness))
}

// Stage is the current phase of an envelope.
type Stage int

const (
	StageIdle Stage = iota
	StageAttack
	StageDecay
	StageSustain
	StageRelease
)

func (s Stage) String() string {
	switch s {
	case StageAttack:
		return "attack"
	case StageDecay:
		return "decay"
	case StageSustain:
		return "sustain"
	case StageRelease:
		return "release"
	}
	return "idle"
}

// ADSR describes envelope timing in seconds and the sustain level in [0, 1].
type ADSR struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64

	AttackCurve  Curve
	DecayCurve   Curve
	ReleaseCurve Curve
}

// Validate reports negative or non-finite times and an out-of-range sustain.
func (a ADSR) Validate() error {
	for _, v := range [...]struct {
		name string
		val  float64
	}{{"attack", a.Attack}, {"decay", a.Decay}, {"release", a.Release}} {
		if !core.IsFinite(v.val) || v.val < 0 {
			return fmt.Errorf("%w: %s %v", ErrInvalidParam, v.name, v.val)
		}
	}
	if !core.IsFinite(a.Sustain) || a.Sustain < 0 || a.Sustain > 1 {
		return fmt.Errorf("%w: sustain %v", ErrInvalidParam, a.Sustain)
	}
	return nil
}

type trigger struct {
	frame    int64
	attack   bool
	velocity float64
}

// envelopeCore is the ADSR state machine shared by Envelope and
// AmplitudeEnvelope.
type envelopeCore struct {
	owner *Context
	shape ADSR

	stage    Stage
	pos      int
	level    float64
	from     float64
	velocity float64
	pending  []trigger
}

// TriggerAttack starts the attack stage at time at (seconds of context
// time; times in the past mean now). Velocity scales the output.
func (e *envelopeCore) TriggerAttack(at, velocity float64) error {
	if !core.IsFinite(at) || !core.IsFinite(velocity) {
		return fmt.Errorf("%w: attack at %v velocity %v", ErrInvalidParam, at, velocity)
	}
	e.owner.mu.Lock()
	defer e.owner.mu.Unlock()
	e.schedule(trigger{frame: e.owner.frameAt(at), attack: true, velocity: core.Clamp(velocity, 0, 1)})
	return nil
}

// TriggerRelease starts the release stage at time at.
func (e *envelopeCore) TriggerRelease(at float64) error {
	if !core.IsFinite(at) {
		return fmt.Errorf("%w: release at %v", ErrInvalidParam, at)
	}
	e.owner.mu.Lock()
	defer e.owner.mu.Unlock()
	e.schedule(trigger{frame: e.owner.frameAt(at)})
	return nil
}

// SetShape replaces the envelope timing. Running stages pick up the new
// times immediately.
func (e *envelopeCore) SetShape(a ADSR) error {
	if err := a.Validate(); err != nil {
		return err
	}
	e.owner.mu.Lock()
	defer e.owner.mu.Unlock()
	e.shape = a
	return nil
}

// Shape returns the envelope timing.
func (e *envelopeCore) Shape() ADSR {
	e.owner.mu.Lock()
	defer e.owner.mu.Unlock()
	return e.shape
}

// Stage returns the current stage.
func (e *envelopeCore) Stage() Stage {
	e.owner.mu.Lock()
	defer e.owner.mu.Unlock()
	return e.stage
}

// Level returns the last rendered level before velocity scaling.
func (e *envelopeCore) Level() float64 {
	e.owner.mu.Lock()
	defer e.owner.mu.Unlock()
	return e.level
}

func (e *envelopeCore) schedule(t trigger) {
	i := sort.Search(len(e.pending), func(i int) bool { return e.pending[i].frame > t.frame })
	e.pending = append(e.pending, trigger{})
	copy(e.pending[i+1:], e.pending[i:])
	e.pending[i] = t
}

func (e *envelopeCore) enter(s Stage) {
	e.stage = s
	e.pos = 0
	e.from = e.level
}

// next applies due triggers for frame and returns the velocity-scaled level
// of that sample.
func (e *envelopeCore) next(frame int64) float64 {
	for len(e.pending) > 0 && e.pending[0].frame <= frame {
		t := e.pending[0]
		e.pending = e.pending[1:]
		switch {
		case t.attack:
			e.velocity = t.velocity
			e.enter(StageAttack)
		case e.stage != StageIdle:
			e.enter(StageRelease)
		}
	}

	sr := e.owner.cfg.SampleRate
	switch e.stage {
	case StageAttack:
		if e.advance(e.shape.Attack, 1, e.shape.AttackCurve, sr) {
			e.enter(StageDecay)
		}
	case StageDecay:
		if e.advance(e.shape.Decay, e.shape.Sustain, e.shape.DecayCurve, sr) {
			e.enter(StageSustain)
		}
	case StageSustain:
		e.level = e.shape.Sustain
	case StageRelease:
		if e.advance(e.shape.Release, 0, e.shape.ReleaseCurve, sr) {
			e.enter(StageIdle)
		}
	default:
		e.level = 0
	}
	return e.level * e.velocity
}

// advance moves the level one sample towards target and reports whether
// the stage has finished.
func (e *envelopeCore) advance(seconds, target float64, c Curve, sr float64) bool {
	total := seconds * sr
	if total < 1 {
		e.level = target
		return true
	}
	e.pos++
	x := float64(e.pos) / total
	if x >= 1 {
		e.level = target
		return true
	}
	e.level = e.from + (target-e.from)*c.progress(x)
	return false
}

// Envelope is an ADSR control signal in [0, velocity].
type Envelope struct {
	*base
	*outlet
	*envelopeCore
}

// NewEnvelope allocates an idle envelope. The shape must be valid.
func (c *Context) NewEnvelope(a ADSR) (*Envelope, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	e := &Envelope{base: newBase(c), envelopeCore: &envelopeCore{owner: c, shape: a}}
	e.outlet = e.base.newOutlet(e.process)
	return e, nil
}

func (e *Envelope) process(frame int64, out []float64) {
	for i := range out {
		out[i] = e.next(frame + int64(i))
	}
}

// AmplitudeEnvelope multiplies its input by an ADSR envelope.
type AmplitudeEnvelope struct {
	*base
	*outlet
	*envelopeCore

	in     *inlet
	gain   []float64
	bypass bool
}

// NewAmplitudeEnvelope allocates an idle amplitude envelope.
func (c *Context) NewAmplitudeEnvelope(a ADSR) (*AmplitudeEnvelope, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	e := &AmplitudeEnvelope{
		base:         newBase(c),
		envelopeCore: &envelopeCore{owner: c, shape: a},
		gain:         make([]float64, c.cfg.BlockSize),
	}
	e.outlet = e.base.newOutlet(e.process)
	e.in = e.base.newInlet()
	return e, nil
}

func (e *AmplitudeEnvelope) sink() *inlet { return e.in }

// SetBypass passes the input through unchanged while the envelope keeps running.
func (e *AmplitudeEnvelope) SetBypass(bypass bool) {
	e.owner.mu.Lock()
	defer e.owner.mu.Unlock()
	e.bypass = bypass
}

// Bypassed reports the bypass state.
func (e *AmplitudeEnvelope) Bypassed() bool {
	e.owner.mu.Lock()
	defer e.owner.mu.Unlock()
	return e.bypass
}

func (e *AmplitudeEnvelope) process(frame int64, out []float64) {
	e.in.mix(frame, out)
	gain := e.gain[:len(out)]
	for i := range gain {
		gain[i] = e.next(frame + int64(i))
	}
	if e.bypass {
		return
	}
	vecmath.MulBlockInPlace(out, gain)
}
