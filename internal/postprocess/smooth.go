package postprocess

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/attractor/internal/dynamo"
)

const (
	// MaxSmoothInput bounds the polyline fed to the simplifier.
	MaxSmoothInput = 150000
	// MaxControlPoints bounds the fitted curve.
	MaxControlPoints = 20000

	handleFactor  = 2.5614
	denseSamples  = 12000
	minSegSamples = 4
)

// BezierPoint is one control point with its incoming and outgoing handles.
type BezierPoint struct {
	Co  dynamo.State `json:"co"`
	In  dynamo.State `json:"handle_left"`
	Out dynamo.State `json:"handle_right"`
}

// Curve is an open piecewise cubic Bézier curve.
type Curve struct {
	Points []BezierPoint `json:"points"`
}

// DefaultSamples is the sample count used to turn a curve back into a
// polyline when the caller does not choose one.
func (c *Curve) DefaultSamples() int {
	return 4 * len(c.Points)
}

// Smooth fits a Bézier curve through a simplified copy of t. Strength 1
// keeps the most detail and 0 the least: the simplification tolerance is
// the bounding-box diagonal times 0.0001 + (1-strength)²·0.05.
func Smooth(t *dynamo.Trajectory, strength float64) (*Curve, error) {
	if !(strength >= 0 && strength <= 1) {
		return nil, dynamo.NewConfigError("smooth", strength, "must be in [0, 1]")
	}
	if t.Len() < 2 {
		return nil, dynamo.NewConfigError("smooth", t.Len(), "needs at least 2 samples")
	}

	pts := t.States()
	if len(pts) > MaxSmoothInput {
		pts = resampleEven(pts, MaxSmoothInput)
	}

	f := 1 - strength
	eps := diagonal(pts) * (0.0001 + f*f*0.05)

	ctrl := rdp(pts, eps)
	if len(ctrl) > MaxControlPoints {
		ctrl = resampleEven(ctrl, MaxControlPoints)
	}
	return &Curve{Points: autoHandles(ctrl)}, nil
}

func diagonal(pts []dynamo.State) float64 {
	var d2 float64
	col := make([]float64, len(pts))
	for axis := 0; axis < 3; axis++ {
		for i, p := range pts {
			col[i] = p[axis]
		}
		span := floats.Max(col) - floats.Min(col)
		d2 += span * span
	}
	return math.Sqrt(d2)
}

// autoHandles places handles along the bisector of the neighbouring
// chords, scaled by the chord lengths. End points mirror their only
// neighbour. Along any axis where a point is a local extremum the handles
// are flattened, and elsewhere they are clamped between the point and its
// neighbour so the curve does not overshoot.
func autoHandles(ctrl []dynamo.State) []BezierPoint {
	n := len(ctrl)
	out := make([]BezierPoint, n)
	for i, p := range ctrl {
		var prev, next dynamo.State
		switch {
		case n == 1:
			out[i] = BezierPoint{Co: p, In: p, Out: p}
			continue
		case i == 0:
			next = ctrl[1]
			prev = p.Scale(2).Sub(next)
		case i == n-1:
			prev = ctrl[n-2]
			next = p.Scale(2).Sub(prev)
		default:
			prev, next = ctrl[i-1], ctrl[i+1]
		}

		dA, dB := p.Sub(prev), next.Sub(p)
		lenA, lenB := dA.Norm(), dB.Norm()
		if lenA == 0 {
			lenA = 1
		}
		if lenB == 0 {
			lenB = 1
		}
		tvec := dA.Scale(1 / lenA).Add(dB.Scale(1 / lenB))
		l := tvec.Norm() * handleFactor

		bp := BezierPoint{Co: p, In: p, Out: p}
		if l != 0 {
			bp.In = p.Sub(tvec.Scale(lenA / l))
			bp.Out = p.Add(tvec.Scale(lenB / l))
		}
		if i > 0 && i < n-1 {
			clampHandles(&bp, prev, next)
		}
		out[i] = bp
	}
	return out
}

func clampHandles(bp *BezierPoint, prev, next dynamo.State) {
	p := bp.Co
	for a := 0; a < 3; a++ {
		if (prev[a]-p[a])*(next[a]-p[a]) > 0 {
			bp.In[a], bp.Out[a] = p[a], p[a]
			continue
		}
		bp.In[a] = clamp(bp.In[a], p[a], prev[a])
		bp.Out[a] = clamp(bp.Out[a], p[a], next[a])
	}
}

func clamp(v, a, b float64) float64 {
	lo, hi := math.Min(a, b), math.Max(a, b)
	return math.Max(lo, math.Min(hi, v))
}

// Sample evaluates the curve densely with de Casteljau's construction and
// resamples the result to exactly n points evenly spaced by arc length.
// The dense pass grows with n so large requests are never capped.
func (c *Curve) Sample(n int) (*dynamo.Trajectory, error) {
	if n < 2 {
		return nil, dynamo.NewConfigError("samples", n, "must be >= 2")
	}
	if len(c.Points) < 2 {
		return nil, dynamo.NewConfigError("curve", len(c.Points), "needs at least 2 control points")
	}

	segs := len(c.Points) - 1
	per := max(minSegSamples, denseSamples/segs, (n-1+segs-1)/segs)
	dense := make([]dynamo.State, 0, segs*per+1)
	for i := 0; i < segs; i++ {
		a, b := c.Points[i], c.Points[i+1]
		for s := 0; s <= per; s++ {
			if s == 0 && i > 0 {
				continue
			}
			u := float64(s) / float64(per)
			dense = append(dense, cubic(a.Co, a.Out, b.In, b.Co, u))
		}
	}

	pts := resampleEven(dense, n)
	if len(pts) > n {
		// zero-length curve: every point is the same
		pts = pts[:n]
	}
	out := dynamo.NewTrajectory(len(pts))
	for k, p := range pts {
		out.Append(dynamo.NewSample(k, 0, p))
	}
	return out, nil
}

func cubic(p0, h0, h1, p1 dynamo.State, u float64) dynamo.State {
	a, b, c := p0.Lerp(h0, u), h0.Lerp(h1, u), h1.Lerp(p1, u)
	d, e := a.Lerp(b, u), b.Lerp(c, u)
	return d.Lerp(e, u)
}
