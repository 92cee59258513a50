package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-voice/dsp/node"
)

func TestUpdateForwardsSections(t *testing.T) {
	t.Parallel()

	b, _ := newTestBuilder(t)
	g, err := b.BuildVoiceChain(nil)
	require.NoError(t, err)

	require.NoError(t, b.Update(g, PresetFromMap(map[string]any{
		"filter":     map[string]any{"frequency": 1200, "enabled": false},
		"oscillator": map[string]any{"type": "square"},
	})))

	f := g.Components[IDFilter].Nodes["filter"].(*node.Filter)
	assert.InDelta(t, 1200, f.Frequency.Target(), 1e-9)
	assert.True(t, f.Bypassed())
	assert.Equal(t, node.Square, g.Components[IDOscillator].Nodes["oscillator"].(*node.Oscillator).Waveform())

	err = b.Update(g, PresetFromMap(map[string]any{
		"filter":       map[string]any{"Q": -3},
		"exoticReverb": map[string]any{"mix": 1},
		"outputGain":   map[string]any{"gain": 0.5},
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "filter: update rejected")
	assert.Contains(t, err.Error(), "exoticReverb: component unavailable")
	assert.InDelta(t, 0.5, g.Components[IDOutputGain].Nodes["gain"].(*node.Gain).Gain.Target(), 1e-12)
}

func TestUpdateModulatorLifecycle(t *testing.T) {
	t.Parallel()

	filter := counting(FilterManager{})
	b, ctx := newTestBuilder(t, WithManager(IDFilter, filter))
	g, err := b.BuildVoiceChain(nil)
	require.NoError(t, err)
	baseline := ctx.LiveNodes()

	// Enable an LFO on the cutoff.
	require.NoError(t, b.Update(g, PresetFromMap(map[string]any{
		"lfo1": map[string]any{"enabled": true, "target": "filter.frequency", "depth": 200},
	})))
	require.Contains(t, g.Components, IDLFO1)
	assert.Equal(t, baseline+2, ctx.LiveNodes())
	assert.Equal(t, 1, modParam(t, g, "filter.frequency").Modulators())

	// Retarget it.
	require.NoError(t, b.Update(g, PresetFromMap(map[string]any{
		"lfo1": map[string]any{"target": "filter.detune"},
	})))
	assert.Zero(t, modParam(t, g, "filter.frequency").Modulators())
	assert.Equal(t, 1, modParam(t, g, "filter.detune").Modulators())
	edge, ok := g.edge(IDLFO1)
	require.True(t, ok)
	assert.Equal(t, "filter.detune", edge.Target.String())
	assert.Equal(t, 1, filter.count(&filter.modDisconnects))

	// Unchanged target leaves the edge alone.
	require.NoError(t, b.Update(g, PresetFromMap(map[string]any{
		"lfo1": map[string]any{"target": "filter.detune", "frequency": 2},
	})))
	assert.Equal(t, 1, filter.count(&filter.modDisconnects))

	// A bad target is reported and leaves the LFO unwired.
	err = b.Update(g, PresetFromMap(map[string]any{
		"lfo1": map[string]any{"target": "filter.cutoff"},
	}))
	assert.ErrorIs(t, err, ErrModulationTargetUnresolved)
	assert.Empty(t, g.Modulations())
	assert.Zero(t, modParam(t, g, "filter.detune").Modulators())

	// Disable it.
	require.NoError(t, b.Update(g, PresetFromMap(map[string]any{
		"lfo1": map[string]any{"enabled": false},
	})))
	assert.NotContains(t, g.Components, IDLFO1)
	assert.NotContains(t, g.ErrorState, IDLFO1)
	assert.Equal(t, baseline, ctx.LiveNodes())
}

func TestUpdateNilGraph(t *testing.T) {
	t.Parallel()

	b, _ := newTestBuilder(t)
	assert.Error(t, b.Update(nil, nil))
}

func TestUpdateRecreatesFailedModulator(t *testing.T) {
	t.Parallel()

	lfo := counting(LFOManager{})
	lfo.failCreate = errInjected
	b, ctx := newTestBuilder(t, WithManager(IDLFO1, lfo))

	section := map[string]any{"enabled": true, "target": "filter.frequency"}
	g, err := b.BuildVoiceChain(PresetFromMap(map[string]any{IDLFO1: section}))
	require.NoError(t, err)
	assert.ErrorIs(t, g.Err(IDLFO1), ErrCreationFailure)
	assert.Equal(t, StatusFailed, g.Status(IDLFO1))
	baseline := ctx.LiveNodes()

	lfo.failCreate = nil
	require.NoError(t, b.Update(g, PresetFromMap(map[string]any{IDLFO1: section})))
	assert.Equal(t, 2, lfo.count(&lfo.creates))
	assert.NoError(t, g.Err(IDLFO1))
	assert.Equal(t, StatusOK, g.Status(IDLFO1))
	assert.Equal(t, 1, modParam(t, g, "filter.frequency").Modulators())
	assert.Equal(t, baseline+2, ctx.LiveNodes())
}
