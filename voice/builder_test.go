package voice

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-voice/dsp/node"
	"github.com/cwbudde/algo-voice/dsp/spectrum"
)

func scenarioA() Preset {
	return PresetFromMap(map[string]any{
		"oscillator": map[string]any{"type": "sine"},
		"filter":     map[string]any{"type": "lowpass", "frequency": 5000},
		"filterEnvelope": map[string]any{
			"enabled": true,
			"attack":  0.01, "decay": 0.2, "sustain": 0.5, "release": 0.5,
			"amount": 800,
		},
		"outputGain": map[string]any{},
	})
}

func TestBuildFilterEnvelopeRoute(t *testing.T) {
	t.Parallel()

	b, _ := newTestBuilder(t)
	g, err := b.BuildVoiceChain(scenarioA())
	require.NoError(t, err)
	require.NotNil(t, g)

	for _, id := range []string{IDOscillator, IDFilter, IDFilterEnvelope, IDOutputGain} {
		require.Contains(t, g.ErrorState, id)
		assert.NoError(t, g.ErrorState[id], id)
		assert.Equal(t, StatusOK, g.Status(id), id)
	}
	assert.Equal(t, StatusOK, g.Outcome())
	assert.Equal(t, 1, modParam(t, g, "filter.frequency").Modulators())

	want := []Modulation{{Source: IDFilterEnvelope, Output: "output", Target: Path{Component: IDFilter, Param: "frequency"}}}
	if diff := cmp.Diff(want, g.Modulations(), cmpopts.IgnoreUnexported(Modulation{})); diff != "" {
		t.Fatalf("modulations mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{IDOscillator, IDAmplitudeEnv, IDFilter, IDOutputGain}, g.Chain())
}

func TestBuildMissingManagerIsNonFatal(t *testing.T) {
	t.Parallel()

	b, _ := newTestBuilder(t)
	g, err := b.BuildVoiceChain(PresetFromMap(map[string]any{
		"exoticReverb": map[string]any{"enabled": true, "mix": 0.3},
	}))
	require.NoError(t, err)

	rerr := g.ErrorState["exoticReverb"]
	require.Error(t, rerr)
	assert.ErrorIs(t, rerr, ErrManagerMissing)
	kind, ok := KindOf(rerr)
	require.True(t, ok)
	assert.Equal(t, ManagerMissing, kind)
	assert.Equal(t, StatusFailed, g.Status("exoticReverb"))
	assert.NotContains(t, g.Components, "exoticReverb")
	assert.NotNil(t, g.Output())
}

func TestBuildUnresolvedTargetSkipsConnect(t *testing.T) {
	t.Parallel()

	filter := counting(FilterManager{})
	b, _ := newTestBuilder(t, WithManager(IDFilter, filter))
	g, err := b.BuildVoiceChain(PresetFromMap(map[string]any{
		"lfo1": map[string]any{"enabled": true, "target": "filter.nonexistentParam"},
	}))
	require.NoError(t, err)

	assert.Zero(t, filter.count(&filter.modConnects))
	assert.ErrorIs(t, g.ErrorState[IDLFO1], ErrModulationTargetUnresolved)
	assert.Equal(t, StatusDegraded, g.Status(IDLFO1))
	assert.Empty(t, g.Modulations())
	for _, id := range g.reg.Chain() {
		assert.NoError(t, g.ErrorState[id], id)
	}
}

func TestBuildModulatorTargets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		preset map[string]any
		source string
		want   Path
		kind   ErrorKind
	}{
		{
			name:   "pitch envelope route",
			preset: map[string]any{"pitchEnvelope": map[string]any{"enabled": true}},
			source: IDPitchEnvelope,
			want:   Path{Component: IDOscillator, Param: "detune"},
		},
		{
			name:   "explicit target overrides route",
			preset: map[string]any{"pitchEnvelope": map[string]any{"enabled": true, "target": "filter.detune"}},
			source: IDPitchEnvelope,
			want:   Path{Component: IDFilter, Param: "detune"},
		},
		{
			name:   "lfo target",
			preset: map[string]any{"lfo2": map[string]any{"enabled": true, "target": "oscillator.frequency", "depth": 3}},
			source: IDLFO2,
			want:   Path{Component: IDOscillator, Param: "frequency"},
		},
		{
			name:   "lfo modulating lfo",
			preset: map[string]any{"lfo1": map[string]any{"enabled": true, "target": "lfo2.frequency"}, "lfo2": map[string]any{"enabled": true, "target": "filter.Q"}},
			source: IDLFO1,
			want:   Path{Component: IDLFO2, Param: "frequency"},
		},
		{
			name:   "lfo without target",
			preset: map[string]any{"lfo1": map[string]any{"enabled": true}},
			source: IDLFO1,
			kind:   ModulationTargetUnresolved,
		},
		{
			name:   "single segment target",
			preset: map[string]any{"lfo1": map[string]any{"enabled": true, "target": "filter"}},
			source: IDLFO1,
			kind:   ModulationTargetUnresolved,
		},
		{
			name:   "three segment target",
			preset: map[string]any{"lfo1": map[string]any{"enabled": true, "target": "filter.filter.Q"}},
			source: IDLFO1,
			kind:   ModulationTargetUnresolved,
		},
		{
			name:   "target not in voice",
			preset: map[string]any{"lfo1": map[string]any{"enabled": true, "target": "lfo2.frequency"}},
			source: IDLFO1,
			kind:   ModulationTargetUnresolved,
		},
		{
			name:   "target source only",
			preset: map[string]any{"lfo1": map[string]any{"enabled": true, "target": "filterEnvelope.amount"}, "filterEnvelope": map[string]any{"enabled": true}},
			source: IDLFO1,
			kind:   ModulationTargetUnresolved,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b, _ := newTestBuilder(t)
			g, err := b.BuildVoiceChain(PresetFromMap(tt.preset))
			require.NoError(t, err)

			if tt.kind != 0 {
				kind, ok := KindOf(g.ErrorState[tt.source])
				require.True(t, ok, "expected an error on %s", tt.source)
				assert.Equal(t, tt.kind, kind)
				return
			}
			require.NoError(t, g.ErrorState[tt.source])
			edge, ok := g.edge(tt.source)
			require.True(t, ok)
			assert.Equal(t, tt.want, edge.Target)
			assert.Equal(t, 1, modParam(t, g, tt.want.String()).Modulators())
		})
	}
}

func TestBuildTerminalFailureDisposesEverything(t *testing.T) {
	t.Parallel()

	managers := map[string]*countingManager{
		IDOscillator:     counting(OscillatorManager{}),
		IDAmplitudeEnv:   counting(AmpEnvManager{}),
		IDFilter:         counting(FilterManager{}),
		IDOutputGain:     counting(NewOutputGainManager()),
		IDFilterEnvelope: counting(NewFilterEnvelopeManager()),
	}
	var opts []RegistryOption
	for id, m := range managers {
		opts = append(opts, WithManager(id, m))
	}
	b, ctx := newTestBuilder(t, opts...)

	g, err := b.BuildVoiceChain(PresetFromMap(map[string]any{
		"outputGain":     map[string]any{"gain": -1},
		"filterEnvelope": map[string]any{"enabled": true},
	}))
	require.Nil(t, g)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTerminalStage)
	assert.ErrorIs(t, err, ErrCreationFailure)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, FatalTerminalStageFailure, kind)

	for id, m := range managers {
		assert.Equal(t, 1, m.count(&m.creates), "%s creates", id)
		assert.Equal(t, 1, m.count(&m.disposes), "%s disposes", id)
	}
	assert.Zero(t, ctx.LiveNodes())
}

func TestBuildTerminalPanicIsFatal(t *testing.T) {
	t.Parallel()

	out := counting(NewOutputGainManager())
	out.panicCreate = true
	b, ctx := newTestBuilder(t, WithManager(IDOutputGain, out))

	g, err := b.BuildVoiceChain(nil)
	require.Nil(t, g)
	assert.ErrorIs(t, err, ErrTerminalStage)
	assert.Zero(t, ctx.LiveNodes())
}

func TestBuildTerminalConnectionFailureIsFatal(t *testing.T) {
	t.Parallel()

	out := counting(NewOutputGainManager())
	out.failConnect = true
	b, ctx := newTestBuilder(t, WithManager(IDOutputGain, out))

	g, err := b.BuildVoiceChain(nil)
	require.Nil(t, g)
	assert.ErrorIs(t, err, ErrTerminalStage)
	assert.ErrorIs(t, err, ErrConnectionFailure)
	assert.Equal(t, 1, out.count(&out.disposes))
	assert.Zero(t, ctx.LiveNodes())
}

func TestBuildStageFailuresAreIsolated(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		inject func(*countingManager)
		kind   ErrorKind
		status Status
	}{
		{name: "panic", inject: func(m *countingManager) { m.panicCreate = true }, kind: CreationFailure, status: StatusFailed},
		{name: "create error", inject: func(m *countingManager) { m.failCreate = errInjected }, kind: CreationFailure, status: StatusFailed},
		{name: "connect", inject: func(m *countingManager) { m.failConnect = true }, kind: ConnectionFailure, status: StatusDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			filter := counting(FilterManager{})
			tt.inject(filter)
			b, _ := newTestBuilder(t, WithManager(IDFilter, filter))

			g, err := b.BuildVoiceChain(nil)
			require.NoError(t, err)

			kind, ok := KindOf(g.ErrorState[IDFilter])
			require.True(t, ok)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.status, g.Status(IDFilter))
			assert.Equal(t, []string{IDOscillator, IDAmplitudeEnv, IDOutputGain}, g.Chain())

			amp := g.Components[IDAmplitudeEnv]
			out := g.Components[IDOutputGain]
			assert.True(t, amp.AudioOutput.IsConnected(out.AudioInput), "filter stage should be bypassed")
		})
	}
}

func TestBuildDisabledStageIsBypassed(t *testing.T) {
	t.Parallel()

	filter := counting(FilterManager{})
	b, _ := newTestBuilder(t, WithManager(IDFilter, filter))
	g, err := b.BuildVoiceChain(PresetFromMap(map[string]any{
		"filter": map[string]any{"enabled": false},
	}))
	require.NoError(t, err)

	assert.Equal(t, []bool{false}, filter.enables)
	f, ok := g.Components[IDFilter].Nodes["filter"].(*node.Filter)
	require.True(t, ok)
	assert.True(t, f.Bypassed())
	assert.Contains(t, g.Chain(), IDFilter)
}

func TestBuildDefaultVoice(t *testing.T) {
	t.Parallel()

	b, ctx := newTestBuilder(t)
	g, err := b.BuildVoiceChain(nil)
	require.NoError(t, err)

	assert.Len(t, g.ErrorState, 4)
	assert.Empty(t, g.Modulations())
	assert.Equal(t, []string{IDOscillator, IDAmplitudeEnv, IDFilter, IDOutputGain}, g.IDs())

	g.Dispose()
	assert.Zero(t, ctx.LiveNodes())
}

func TestBuildConcurrentCreation(t *testing.T) {
	t.Parallel()

	reg, err := DefaultRegistry()
	require.NoError(t, err)
	ctx := newTestContext(t)
	b, err := NewBuilder(reg, ctx, WithCreateConcurrency(4))
	require.NoError(t, err)

	preset := scenarioA()
	preset["lfo1"] = ComponentConfig{Enabled: boolPtr(true), Params: ParseParams(map[string]any{"target": "oscillator.detune"})}
	g, err := b.BuildVoiceChain(preset)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, g.Outcome())
	assert.Len(t, g.Modulations(), 2)
}

func TestConcurrentBuildsShareRegistry(t *testing.T) {
	t.Parallel()

	b, ctx := newTestBuilder(t)

	var (
		mu  sync.Mutex
		ids = map[uint64]bool{}
		eg  errgroup.Group
	)
	for range 16 {
		eg.Go(func() error {
			g, err := b.BuildVoiceChain(scenarioA())
			if err != nil {
				return err
			}
			if s := g.Outcome(); s != StatusOK {
				return fmt.Errorf("voice %d outcome %s", g.ID, s)
			}
			mu.Lock()
			ids[g.ID] = true
			mu.Unlock()
			g.Dispose()
			return nil
		})
	}
	require.NoError(t, eg.Wait())
	assert.Len(t, ids, 16)
	assert.Zero(t, ctx.LiveNodes())
}

func TestRenderedVoicePeaksAtOscillatorFrequency(t *testing.T) {
	t.Parallel()

	b, ctx := newTestBuilder(t)
	g, err := b.BuildVoiceChain(PresetFromMap(map[string]any{
		"oscillator":   map[string]any{"type": "sine", "frequency": 1000},
		"amplitudeEnv": map[string]any{"attack": 0, "decay": 0, "sustain": 1},
	}))
	require.NoError(t, err)
	require.NoError(t, g.ConnectTo(ctx.Destination()))
	require.NoError(t, g.TriggerAttack(0, 1))

	out := render(ctx, 0.2)
	a, err := spectrum.NewAnalyzer(4096)
	require.NoError(t, err)
	peak, err := a.PeakFrequency(out[len(out)-4096:], ctx.SampleRate())
	require.NoError(t, err)
	assert.InDelta(t, 1000, peak.Frequency, 6)
	assert.InDelta(t, 1, peak.Magnitude, 0.15)
}

func TestTriggerDrivesEnvelopes(t *testing.T) {
	t.Parallel()

	b, ctx := newTestBuilder(t)
	g, err := b.BuildVoiceChain(scenarioA())
	require.NoError(t, err)
	require.NoError(t, g.ConnectTo(ctx.Destination()))

	amp, ok := g.Components[IDAmplitudeEnv].Nodes["envelope"].(*node.AmplitudeEnvelope)
	require.True(t, ok)
	env, ok := g.Components[IDFilterEnvelope].Nodes["envelope"].(*node.Envelope)
	require.True(t, ok)

	require.NoError(t, g.TriggerAttack(ctx.CurrentTime(), 0.8))
	render(ctx, 0.05)
	assert.Equal(t, node.StageDecay, amp.Stage())
	assert.Equal(t, node.StageDecay, env.Stage())

	require.NoError(t, g.TriggerRelease(ctx.CurrentTime()))
	render(ctx, 0.6)
	assert.Equal(t, node.StageIdle, amp.Stage())
	assert.Equal(t, node.StageIdle, env.Stage())
}

func TestDisposeComponentsOnce(t *testing.T) {
	t.Parallel()

	filter := counting(FilterManager{})
	b, ctx := newTestBuilder(t, WithManager(IDFilter, filter))
	g, err := b.BuildVoiceChain(scenarioA())
	require.NoError(t, err)
	require.Positive(t, ctx.LiveNodes())

	DisposeComponents(g.Components)
	DisposeComponents(g.Components)
	g.Dispose()

	assert.Equal(t, 1, filter.count(&filter.disposes))
	assert.Zero(t, ctx.LiveNodes())
	for id, bundle := range g.Components {
		assert.True(t, bundle.Disposed(), id)
	}
}

func TestDisposeComponentsSurvivesPanic(t *testing.T) {
	t.Parallel()

	osc := counting(OscillatorManager{})
	osc.panicDispose = true
	b, ctx := newTestBuilder(t, WithManager(IDOscillator, osc))
	g, err := b.BuildVoiceChain(nil)
	require.NoError(t, err)

	assert.NotPanics(t, func() { DisposeComponents(g.Components) })
	assert.Zero(t, ctx.LiveNodes())
}

func TestNewBuilderRejectsInvalidRegistry(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry(DefaultTopology())
	require.NoError(t, err)

	_, err = NewBuilder(reg, newTestContext(t))
	assert.ErrorIs(t, err, ErrManagerMissing)
	assert.False(t, reg.Sealed())

	_, err = NewBuilder(nil, newTestContext(t))
	assert.Error(t, err)
}

func TestBuilderFindParamByPathLogs(t *testing.T) {
	t.Parallel()

	var logs syncBuffer
	reg, err := DefaultRegistry()
	require.NoError(t, err)
	b, err := NewBuilder(reg, newTestContext(t), WithLogger(newBufferLogger(&logs)))
	require.NoError(t, err)
	g, err := b.BuildVoiceChain(nil)
	require.NoError(t, err)

	assert.Nil(t, b.FindParamByPath(g.Components, "filter"))
	assert.Contains(t, logs.String(), "parameter lookup failed")
	assert.NotNil(t, b.FindParamByPath(g.Components, "filter.Q"))
}

func boolPtr(v bool) *bool { return &v }

func TestBuildVoicePortamento(t *testing.T) {
	t.Parallel()

	osc := func(g *VoiceGraph) *node.Oscillator {
		return g.Components[IDOscillator].Nodes["oscillator"].(*node.Oscillator)
	}

	tests := []struct {
		name    string
		section map[string]any
		want    float64
	}{
		{name: "enabled", section: map[string]any{"enabled": true, "time": 0.05}, want: 0.05},
		{name: "disabled", section: map[string]any{"enabled": false, "time": 0.05}, want: 0},
		{name: "no time", section: map[string]any{"enabled": true}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b, _ := newTestBuilder(t)
			g, err := b.BuildVoiceChain(PresetFromMap(map[string]any{PortamentoSection: tt.section}))
			require.NoError(t, err)
			assert.NotContains(t, g.ErrorState, PortamentoSection)
			assert.NotContains(t, g.Components, PortamentoSection)
			assert.Equal(t, StatusOK, g.Outcome())
			assert.InDelta(t, tt.want, osc(g).Portamento(), 1e-12)
		})
	}

	t.Run("update", func(t *testing.T) {
		t.Parallel()

		b, _ := newTestBuilder(t)
		g, err := b.BuildVoiceChain(nil)
		require.NoError(t, err)

		require.NoError(t, b.Update(g, PresetFromMap(map[string]any{
			PortamentoSection: map[string]any{"enabled": true, "time": 0.2},
		})))
		assert.InDelta(t, 0.2, osc(g).Portamento(), 1e-12)

		require.NoError(t, b.Update(g, PresetFromMap(map[string]any{
			PortamentoSection: map[string]any{"enabled": false},
		})))
		assert.Zero(t, osc(g).Portamento())
	})
}

func TestBuildCustomChainOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		chain []string
	}{
		{name: "default", chain: DefaultTopology().Chain},
		{name: "filter first", chain: []string{IDOscillator, IDFilter, IDAmplitudeEnv, "insert", IDOutputGain}},
		{name: "insert after oscillator", chain: []string{IDOscillator, "insert", IDFilter, IDAmplitudeEnv, IDOutputGain}},
		{name: "no filter", chain: []string{IDOscillator, IDAmplitudeEnv, IDOutputGain}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			topo := Topology{Chain: tt.chain, Modulators: DefaultTopology().Modulators}
			b, _ := newTestBuilder(t, WithTopology(topo))
			g, err := b.BuildVoiceChain(nil)
			require.NoError(t, err)
			assert.Equal(t, tt.chain, g.Chain())

			for i := 1; i < len(tt.chain); i++ {
				prev, next := g.Components[tt.chain[i-1]], g.Components[tt.chain[i]]
				require.NotNil(t, prev.AudioOutput, tt.chain[i-1])
				require.NotNil(t, next.AudioInput, tt.chain[i])
				assert.Truef(t, prev.AudioOutput.IsConnected(next.AudioInput),
					"%s is not connected to %s", tt.chain[i-1], tt.chain[i])
			}
			assert.Equal(t, g.Components[IDOutputGain].AudioOutput, g.Output())
		})
	}
}
