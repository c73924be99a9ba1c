// Package sim runs integrations.
//
// A run moves through Initializing, Stepping and then one of Completed,
// Failed or Truncated. Sample 0 is always the initial condition. Fixed-step
// schemes advance by exactly Config.Dt; embedded schemes accept a trial
// step only when its error estimate is within Config.Tolerance and fail
// when the minimum step still cannot meet it.
//
// Cancellation is checked between steps. A cancelled or failed run
// returns the samples produced so far with Trajectory.Truncated set.
package sim
