package integrators

import "github.com/san-kum/attractor/internal/dynamo"

// Euler is the explicit first-order scheme x + f(x)dt.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(sys dynamo.System, x dynamo.State, dt float64) dynamo.State {
	return x.AddScaled(sys.Derive(x), dt)
}
