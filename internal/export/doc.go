// Package export writes trajectories and fitted curves for other tools:
// CSV with the columns steps, dt, x, y, z, JSON run dumps and Bézier
// control points, and a directory archive of runs.
package export
