// Package analysis characterises trajectories and systems.
//
//   - [LargestLyapunov]: largest Lyapunov exponent via Benettin renormalisation
//   - [PowerSpectrum]: one-sided power spectrum of one coordinate
//   - [Bifurcation]: parameter sweep recording local maxima of an axis
//   - [Project] and [PoincareSection]: planar views of a trajectory
//
// Every routine takes an already bound [dynamo.System] and a fixed-step
// [dynamo.Stepper]; spectra assume evenly spaced samples.
//
//	lambda, err := analysis.LargestLyapunov(sys, integrators.NewRK4(), x0, analysis.DefaultLyapunovConfig())
//	if err == nil && lambda > 0 {
//		// nearby orbits separate exponentially
//	}
package analysis
