// Package dynamo provides the core numeric primitives for integrating
// three-dimensional autonomous ODE systems.
//
//   - [State]: point in (x, y, z) phase space
//   - [System]: vector field dX/dt = f(X)
//   - [Stepper], [AdaptiveStepper]: stepping scheme contracts
//   - [Config]: scheme selector and its numeric settings
//   - [Trajectory]: ordered samples produced by one run
//
// # Errors
//
// Out-of-range settings surface as [*ConfigError] before a run starts.
// Failures during a run surface as [*NumericalFailure] wrapping one of
// [ErrNonFinite], [ErrStepUnderflow] or [ErrAttemptLimit].
package dynamo
