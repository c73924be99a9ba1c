package integrators

import "github.com/san-kum/attractor/internal/dynamo"

// RK4 is the classical four-stage Runge-Kutta scheme.
type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Step(sys dynamo.System, x dynamo.State, dt float64) dynamo.State {
	k1 := sys.Derive(x)
	k2 := sys.Derive(x.AddScaled(k1, 0.5*dt))
	k3 := sys.Derive(x.AddScaled(k2, 0.5*dt))
	k4 := sys.Derive(x.AddScaled(k3, dt))

	dt6 := dt / 6.0
	var out dynamo.State
	for i := range out {
		out[i] = x[i] + dt6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}
	return out
}
