// Package capture normalizes simulation state captures for comparison.
//
// A capture is the structured document the simulator writes when invoked
// with --save-final-state. The document has a top-level "game_state"
// substructure plus arbitrary sibling metadata; only game_state is
// semantically meaningful. Canonicalization strips a fixed denylist of
// incidental fields (counters, undo bookkeeping, presentation settings)
// at any depth and serializes the rest as canonical JSON, so two captures
// with identical semantic content produce byte-identical output.
package capture
