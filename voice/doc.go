// Package voice assembles per-note signal graphs from declarative presets.
//
// A Registry maps component ids to Managers and fixes the chain order, the
// terminal stage and the set of modulation-only components. A Builder
// turns a Preset into a VoiceGraph: it creates every requested component,
// links the audio chain in order, wires modulators to their targets and
// records per-component failures without aborting the voice. Only a failed
// terminal stage aborts a build, in which case everything created so far is
// disposed.
package voice
