package integrators

import (
	"fmt"

	"github.com/san-kum/attractor/internal/dynamo"
)

var fixed = map[dynamo.Method]func() dynamo.Stepper{
	dynamo.Euler: func() dynamo.Stepper { return NewEuler() },
	dynamo.Heun:  func() dynamo.Stepper { return NewHeun() },
	dynamo.RK4:   func() dynamo.Stepper { return NewRK4() },
	dynamo.RKF45: func() dynamo.Stepper { return NewRKF45() },
	dynamo.DP5:   func() dynamo.Stepper { return NewDP5() },
}

var adaptive = map[dynamo.Method]func() dynamo.AdaptiveStepper{
	dynamo.RKF45: func() dynamo.AdaptiveStepper { return NewRKF45() },
	dynamo.DP5:   func() dynamo.AdaptiveStepper { return NewDP5() },
}

// New returns a fresh stepper for m. The embedded pairs are returned as
// plain steppers here; use NewAdaptive for step control.
func New(m dynamo.Method) (dynamo.Stepper, error) {
	ctor, ok := fixed[m]
	if !ok {
		return nil, fmt.Errorf("unknown integration method: %s", m)
	}
	return ctor(), nil
}

func NewAdaptive(m dynamo.Method) (dynamo.AdaptiveStepper, error) {
	ctor, ok := adaptive[m]
	if !ok {
		return nil, fmt.Errorf("method %s has no error estimate", m)
	}
	return ctor(), nil
}
