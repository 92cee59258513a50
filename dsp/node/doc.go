// Package node is a small block-based signal graph used to assemble voices.
//
// A Context owns every node it allocates and renders the graph by pulling
// its Destination one block at a time. Nodes expose Output and Input ports;
// a Param is an Input too, so any Output can modulate any parameter. Every
// parameter's effective value is its base value (set directly or through a
// linear ramp) plus the sum of the signals connected to it.
//
// All control operations (Connect, Disconnect, Dispose, SetValue, RampTo,
// envelope triggers) take the Context lock that Render holds for the
// duration of a block, so they are safe to call from a control goroutine
// while another goroutine renders. A disposed node is detached before the
// next block begins.
package node
