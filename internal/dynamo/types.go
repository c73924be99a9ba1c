package dynamo

import "math"

// State is a point in the three-dimensional phase space (x, y, z).
type State [3]float64

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	return math.Sqrt(s[0]*s[0] + s[1]*s[1] + s[2]*s[2])
}

func (s State) Add(other State) State {
	return State{s[0] + other[0], s[1] + other[1], s[2] + other[2]}
}

func (s State) Sub(other State) State {
	return State{s[0] - other[0], s[1] - other[1], s[2] - other[2]}
}

func (s State) Scale(factor float64) State {
	return State{s[0] * factor, s[1] * factor, s[2] * factor}
}

// AddScaled returns s + factor*other.
func (s State) AddScaled(other State, factor float64) State {
	return State{
		s[0] + factor*other[0],
		s[1] + factor*other[1],
		s[2] + factor*other[2],
	}
}

// Lerp interpolates between s and other, f in [0, 1].
func (s State) Lerp(other State, f float64) State {
	return State{
		s[0] + (other[0]-s[0])*f,
		s[1] + (other[1]-s[1])*f,
		s[2] + (other[2]-s[2])*f,
	}
}

func (s State) Dot(other State) float64 {
	return s[0]*other[0] + s[1]*other[1] + s[2]*other[2]
}

// System is an autonomous vector field dX/dt = f(X).
type System interface {
	Derive(x State) State
}

// SystemFunc adapts a plain function to System.
type SystemFunc func(x State) State

func (f SystemFunc) Derive(x State) State { return f(x) }

// Stepper advances a state by exactly dt.
type Stepper interface {
	Step(sys System, x State, dt float64) State
}

// Attempt is the outcome of one trial step of an embedded scheme.
type Attempt struct {
	Next     State
	Err      float64
	DtNext   float64
	Accepted bool
	// NonFinite marks a rejection caused by a NaN or Inf candidate or
	// error estimate rather than by the tolerance.
	NonFinite bool
}

// AdaptiveStepper tries a step of size dt and reports the local error
// estimate together with the suggested next step size.
type AdaptiveStepper interface {
	Attempt(sys System, x State, dt, tol float64) Attempt
}

// Observer receives every emitted sample of a run.
type Observer interface {
	OnSample(s Sample)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(s Sample)

func (f ObserverFunc) OnSample(s Sample) { f(s) }
