// Package data holds small lookup tables shared by the engine's
// components: plain exported constants, no behavior.
package data

// Minutes-since-midnight cutoffs used by the Block Partitioner.
const (
	MorningCutoffMin   = 11 * 60
	AfternoonCutoffMin = 15 * 60
)

// MinBufferMinutes is the minimum inter-job buffer enforced by the chain
// and assembly invariants.
const MinBufferMinutes = 5
