package integrators

import (
	"math"

	"github.com/san-kum/attractor/internal/dynamo"
)

// errFloor keeps the step-size update finite when a step is exact.
const errFloor = 1e-20

// Embedded is an explicit Runge-Kutta pair sharing its stages between a
// fifth-order solution (b) and a fourth-order companion (bHat). The
// difference of the two is the local error estimate; the fifth-order
// solution is propagated.
type Embedded struct {
	name string
	a    [][]float64
	b    []float64
	bHat []float64
	// fsal evaluates one extra stage at the new point, whose weight
	// appears only in bHat.
	fsal bool

	safety   float64
	minScale float64
	maxScale float64
}

func newEmbedded(name string, a [][]float64, b, bHat []float64, fsal bool) *Embedded {
	return &Embedded{
		name:     name,
		a:        a,
		b:        b,
		bHat:     bHat,
		fsal:     fsal,
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

func (e *Embedded) Name() string { return e.name }

// Step takes a single step of size dt without step control.
func (e *Embedded) Step(sys dynamo.System, x dynamo.State, dt float64) dynamo.State {
	next, _ := e.solve(sys, x, dt)
	return next
}

// Attempt tries a step of size dt. The step is accepted when the
// Euclidean norm of the error estimate is within tol. A non-finite
// candidate or estimate is rejected with the smallest step factor.
func (e *Embedded) Attempt(sys dynamo.System, x dynamo.State, dt, tol float64) dynamo.Attempt {
	next, errVec := e.solve(sys, x, dt)

	errNorm := errVec.Norm()
	if math.IsNaN(errNorm) || math.IsInf(errNorm, 0) || !next.IsValid() {
		return dynamo.Attempt{Next: next, Err: errNorm, DtNext: dt * e.minScale, NonFinite: true}
	}
	if errNorm < errFloor {
		errNorm = errFloor
	}

	scale := e.safety * math.Pow(tol/errNorm, 0.2)
	scale = math.Max(e.minScale, math.Min(e.maxScale, scale))

	return dynamo.Attempt{
		Next:     next,
		Err:      errNorm,
		DtNext:   dt * scale,
		Accepted: errNorm <= tol,
	}
}

func (e *Embedded) solve(sys dynamo.System, x dynamo.State, dt float64) (dynamo.State, dynamo.State) {
	stages := len(e.a)
	k := make([]dynamo.State, stages, stages+1)
	k[0] = sys.Derive(x)
	for i := 1; i < stages; i++ {
		xi := x
		for j, aij := range e.a[i] {
			if aij != 0 {
				xi = xi.AddScaled(k[j], dt*aij)
			}
		}
		k[i] = sys.Derive(xi)
	}

	next := x
	for j, bj := range e.b {
		if bj != 0 {
			next = next.AddScaled(k[j], dt*bj)
		}
	}
	if e.fsal {
		k = append(k, sys.Derive(next))
	}

	var errVec dynamo.State
	for j := range k {
		d := e.b[j] - e.bHat[j]
		if d != 0 {
			errVec = errVec.AddScaled(k[j], dt*d)
		}
	}
	return next, errVec
}
