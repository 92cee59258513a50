package voice

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-voice/dsp/core"
	"github.com/cwbudde/algo-voice/dsp/node"
)

// countingManager wraps a Manager, counts calls and injects failures.
type countingManager struct {
	Manager

	mu             sync.Mutex
	creates        int
	disposes       int
	connects       int
	enables        []bool
	modConnects    int
	modDisconnects int

	panicCreate  bool
	panicDispose bool
	failCreate   error
	failConnect  bool
}

func counting(m Manager) *countingManager { return &countingManager{Manager: m} }

func (c *countingManager) Create(env Env, d ComponentDescriptor) *NodeBundle {
	c.mu.Lock()
	c.creates++
	c.mu.Unlock()
	if c.panicCreate {
		panic("boom")
	}
	if c.failCreate != nil {
		return failed(c.failCreate)
	}
	return c.Manager.Create(env, d)
}

func (c *countingManager) ConnectPeers(b *NodeBundle, prev node.Output, next node.Input) bool {
	c.mu.Lock()
	c.connects++
	c.mu.Unlock()
	if c.failConnect {
		return false
	}
	return c.Manager.ConnectPeers(b, prev, next)
}

func (c *countingManager) Enable(b *NodeBundle, enabled bool) bool {
	c.mu.Lock()
	c.enables = append(c.enables, enabled)
	c.mu.Unlock()
	return c.Manager.Enable(b, enabled)
}

func (c *countingManager) ConnectModulator(b *NodeBundle, param string, src node.Output) bool {
	c.mu.Lock()
	c.modConnects++
	c.mu.Unlock()
	return c.Manager.ConnectModulator(b, param, src)
}

func (c *countingManager) DisconnectModulator(b *NodeBundle, param string, src node.Output) bool {
	c.mu.Lock()
	c.modDisconnects++
	c.mu.Unlock()
	return c.Manager.DisconnectModulator(b, param, src)
}

func (c *countingManager) Dispose(b *NodeBundle) {
	c.mu.Lock()
	c.disposes++
	c.mu.Unlock()
	if c.panicDispose {
		panic("dispose boom")
	}
	c.Manager.Dispose(b)
}

func (c *countingManager) count(n *int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *n
}

var errInjected = errors.New("injected failure")

func newTestContext(t *testing.T) *node.Context {
	t.Helper()
	ctx, err := node.NewContext(core.WithSampleRate(48000), core.WithBlockSize(64))
	require.NoError(t, err)
	return ctx
}

func newTestBuilder(t *testing.T, opts ...RegistryOption) (*Builder, *node.Context) {
	t.Helper()
	reg, err := DefaultRegistry(opts...)
	require.NoError(t, err)
	ctx := newTestContext(t)
	b, err := NewBuilder(reg, ctx)
	require.NoError(t, err)
	return b, ctx
}

func testEnv(ctx *node.Context) Env {
	return Env{Audio: ctx, Log: zerolog.Nop()}
}

func render(ctx *node.Context, seconds float64) []float64 {
	out := make([]float64, ctx.Config().Samples(seconds))
	ctx.Render(out)
	return out
}

func modParam(t *testing.T, g *VoiceGraph, path string) *node.Param {
	t.Helper()
	p, ok := FindParamByPath(g.Components, path).(*node.Param)
	require.Truef(t, ok, "%s does not resolve to a param", path)
	return p
}

// syncBuffer is a bytes.Buffer safe for concurrent log writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newBufferLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).Level(zerolog.DebugLevel)
}
