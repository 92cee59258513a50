package voice

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParamsKeepsPrimitives(t *testing.T) {
	t.Parallel()

	p := ParseParams(map[string]any{
		"f64":    1.5,
		"f32":    float32(0.5),
		"int":    3,
		"int64":  int64(-4),
		"uint":   uint(7),
		"str":    "sine",
		"flag":   true,
		"nested": map[string]any{"x": 1},
		"list":   []any{1, 2},
		"nil":    nil,
	})

	want := Params{
		Num:  map[string]float64{"f64": 1.5, "f32": 0.5, "int": 3, "int64": -4, "uint": 7},
		Str:  map[string]string{"str": "sine"},
		Flag: map[string]bool{"flag": true},
	}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Fatalf("ParseParams mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 7, p.Len())
	assert.False(t, p.Has("nested"))
}

func TestParamsGetters(t *testing.T) {
	t.Parallel()

	p := ParseParams(map[string]any{"a": 2.0, "nan": math.NaN(), "inf": math.Inf(1), "s": "x", "b": true})

	assert.InDelta(t, 2, p.GetNum("a", 9), 0)
	assert.InDelta(t, 9, p.GetNum("nan", 9), 0)
	assert.InDelta(t, 9, p.GetNum("inf", 9), 0)
	assert.InDelta(t, 9, p.GetNum("s", 9), 0)
	_, ok := p.LookupNum("nan")
	assert.False(t, ok)
	assert.Equal(t, "x", p.GetStr("s", "y"))
	assert.Equal(t, "y", p.GetStr("a", "y"))
	assert.True(t, p.GetBool("b", false))
	assert.True(t, p.GetBool("missing", true))

	var zero Params
	assert.InDelta(t, 1, zero.GetNum("a", 1), 0)
	assert.Zero(t, zero.Len())
}

func TestParamsMergeReplacesAcrossTypes(t *testing.T) {
	t.Parallel()

	base := ParseParams(map[string]any{"type": "sine", "frequency": 440, "sync": true})
	over := ParseParams(map[string]any{"frequency": "auto", "detune": 5})
	got := base.Merge(over)

	want := map[string]any{"type": "sine", "frequency": "auto", "detune": 5.0, "sync": true}
	if diff := cmp.Diff(want, got.Map()); diff != "" {
		t.Fatalf("Merge mismatch (-want +got):\n%s", diff)
	}
	assert.InDelta(t, 440, base.GetNum("frequency", 0), 0, "merge must not modify the receiver")
}

func TestPresetFromMap(t *testing.T) {
	t.Parallel()

	p := PresetFromMap(map[string]any{
		"oscillator":     map[string]any{"type": "sawtooth", "frequency": 110},
		"filterEnvelope": map[string]any{"enabled": true, "params": map[string]any{"amount": 1200, "enabled": false}},
		"lfo1":           map[string]any{"enabled": false, "target": "filter.Q"},
		"broken":         "not a table",
	})

	assert.Equal(t, []string{"filterEnvelope", "lfo1", "oscillator"}, p.IDs())

	osc := p["oscillator"]
	assert.Nil(t, osc.Enabled)
	assert.Equal(t, "sawtooth", osc.Params.GetStr("type", ""))

	env := p["filterEnvelope"]
	assert.True(t, env.IsEnabled())
	assert.InDelta(t, 1200, env.Params.GetNum("amount", 0), 0)
	assert.False(t, env.Params.Has("enabled"))

	lfo := p["lfo1"]
	assert.True(t, lfo.IsDisabled())
	assert.False(t, lfo.IsEnabled())

	missing := p.Section("nothing")
	require.NotNil(t, missing.Params.Num)
	assert.Zero(t, missing.Params.Len())
}

func TestPresetMapRoundTrip(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"filter": map[string]any{"enabled": true, "frequency": 800.0, "type": "bandpass"},
	}
	if diff := cmp.Diff(raw, PresetFromMap(raw).Map()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePath(t *testing.T) {
	t.Parallel()

	p, err := ParsePath("filter.frequency")
	require.NoError(t, err)
	assert.Equal(t, Path{Component: "filter", Param: "frequency"}, p)
	assert.Equal(t, "filter.frequency", p.String())

	for _, bad := range []string{"", "filter", "filter.", ".frequency", "a.b.c"} {
		_, err := ParsePath(bad)
		assert.ErrorIs(t, err, ErrInvalidPath, bad)
	}
	assert.True(t, Path{}.IsZero())
	assert.Empty(t, Path{}.String())
}
