// Package postprocess transforms finished trajectories: trimming,
// decimation, Bézier smoothing and geometric placement.
//
// Every function leaves its input untouched and returns a new trajectory
// or curve. Samples kept from the input keep their step index and step
// size; points synthesized by resampling are renumbered and carry no step
// size.
package postprocess
