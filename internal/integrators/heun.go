package integrators

import "github.com/san-kum/attractor/internal/dynamo"

// Heun is the second-order predictor-corrector (explicit trapezoid).
type Heun struct{}

func NewHeun() *Heun {
	return &Heun{}
}

func (h *Heun) Step(sys dynamo.System, x dynamo.State, dt float64) dynamo.State {
	k1 := sys.Derive(x)
	pred := x.AddScaled(k1, dt)
	k2 := sys.Derive(pred)
	return x.AddScaled(k1.Add(k2), 0.5*dt)
}
