package voice

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/cwbudde/algo-voice/dsp/node"
)

// NodeBundle is what a Manager's Create step produces: the nodes of one
// component keyed by role plus the handles the Builder wires.
type NodeBundle struct {
	ID   string
	Kind string

	Nodes       map[string]node.Node
	AudioInput  node.Input
	AudioOutput node.Output
	ModInputs   map[string]*node.Param
	ModOutputs  map[string]node.Output

	Err error

	manager  Manager
	log      zerolog.Logger
	disposed bool
}

// failed returns a bundle that carries only an error.
func failed(err error) *NodeBundle {
	return &NodeBundle{Err: err}
}

// OK reports whether the bundle exists and carries no error.
func (b *NodeBundle) OK() bool {
	return b != nil && b.Err == nil
}

// Disposed reports whether the bundle has been torn down.
func (b *NodeBundle) Disposed() bool {
	return b != nil && b.disposed
}

// Roles returns the node roles in sorted order.
func (b *NodeBundle) Roles() []string {
	roles := make([]string, 0, len(b.Nodes))
	for r := range b.Nodes {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	return roles
}

// Logger returns the component logger, a no-op logger when unset.
func (b *NodeBundle) Logger() *zerolog.Logger {
	return &b.log
}

func (b *NodeBundle) disposeNodes() {
	for _, role := range b.Roles() {
		if n := b.Nodes[role]; n != nil {
			n.Dispose()
		}
	}
}
