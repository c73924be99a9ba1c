package postprocess

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/attractor/internal/dynamo"
)

// Stride keeps every n-th sample and always the last one.
func Stride(t *dynamo.Trajectory, n int) (*dynamo.Trajectory, error) {
	if n < 1 {
		return nil, dynamo.NewConfigError("stride", n, "must be >= 1")
	}
	size := t.Len()
	if n == 1 || size < 3 {
		return t.Clone(), nil
	}

	out := derive(t, size/n+2)
	for i := 0; i < size; i += n {
		out.Append(t.Samples[i])
	}
	if (size-1)%n != 0 {
		out.Append(t.Samples[size-1])
	}
	return out, nil
}

// Resample redistributes the trajectory over target points spaced evenly by
// arc length. A target at or above the current length returns a copy; the
// first and last samples are kept verbatim.
func Resample(t *dynamo.Trajectory, target int) (*dynamo.Trajectory, error) {
	if target < 2 {
		return nil, dynamo.NewConfigError("resample", target, "must be >= 2")
	}
	if target >= t.Len() {
		return t.Clone(), nil
	}

	pts := resampleEven(t.States(), target)
	if len(pts) == t.Len() {
		return t.Clone(), nil
	}

	out := derive(t, len(pts))
	out.Append(t.Samples[0])
	for k := 1; k < len(pts)-1; k++ {
		out.Append(dynamo.NewSample(k, 0, pts[k]))
	}
	last, _ := t.Last()
	out.Append(last)
	return out, nil
}

// resampleEven returns m points spaced evenly along the polyline. Degenerate
// input (fewer than two points, m out of range, zero length) is returned
// as a copy.
func resampleEven(pts []dynamo.State, m int) []dynamo.State {
	n := len(pts)
	if n < 2 || m <= 1 || m >= n {
		return append([]dynamo.State(nil), pts...)
	}

	cum := make([]float64, n)
	for i := 1; i < n; i++ {
		cum[i] = pts[i].Sub(pts[i-1]).Norm()
	}
	floats.CumSum(cum, cum)
	total := cum[n-1]
	if total <= 1e-12 {
		return append([]dynamo.State(nil), pts...)
	}
	floats.Scale(1/total, cum)

	out := make([]dynamo.State, 0, m)
	j := 0
	for k := 0; k < m; k++ {
		u := float64(k) / float64(m-1)
		for j < n-2 && cum[j+1] < u {
			j++
		}
		t0, t1 := cum[j], cum[j+1]
		f := 0.0
		if t1 > t0 {
			f = (u - t0) / (t1 - t0)
		}
		out = append(out, pts[j].Lerp(pts[j+1], f))
	}
	return out
}

// DouglasPeucker drops samples closer than epsilon to the chord of their
// enclosing kept pair. Distances are measured to the chord segment, not the
// infinite line.
func DouglasPeucker(t *dynamo.Trajectory, epsilon float64) (*dynamo.Trajectory, error) {
	if !(epsilon >= 0) || math.IsInf(epsilon, 0) {
		return nil, dynamo.NewConfigError("rdp", epsilon, "must be finite and >= 0")
	}
	if t.Len() < 3 {
		return t.Clone(), nil
	}

	keep := rdpMask(t.States(), epsilon)
	out := derive(t, len(keep))
	for i, k := range keep {
		if k {
			out.Append(t.Samples[i])
		}
	}
	return out, nil
}

func rdp(pts []dynamo.State, epsilon float64) []dynamo.State {
	if len(pts) < 3 {
		return append([]dynamo.State(nil), pts...)
	}
	keep := rdpMask(pts, epsilon)
	out := make([]dynamo.State, 0, len(pts)/4+2)
	for i, k := range keep {
		if k {
			out = append(out, pts[i])
		}
	}
	return out
}

// rdpMask runs Ramer-Douglas-Peucker with an explicit stack; long chaotic
// trajectories recurse too deep otherwise.
func rdpMask(pts []dynamo.State, epsilon float64) []bool {
	keep := make([]bool, len(pts))
	keep[0], keep[len(pts)-1] = true, true

	type span struct{ lo, hi int }
	stack := []span{{0, len(pts) - 1}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s.hi-s.lo < 2 {
			continue
		}

		a, b := pts[s.lo], pts[s.hi]
		idx, dmax := 0, 0.0
		for i := s.lo + 1; i < s.hi; i++ {
			if d := segmentDistance(pts[i], a, b); d > dmax {
				idx, dmax = i, d
			}
		}
		if dmax > epsilon {
			keep[idx] = true
			stack = append(stack, span{s.lo, idx}, span{idx, s.hi})
		}
	}
	return keep
}

func segmentDistance(p, a, b dynamo.State) float64 {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq == 0 {
		return p.Sub(a).Norm()
	}
	u := ab.Dot(p.Sub(a)) / lenSq
	u = math.Max(0, math.Min(1, u))
	return p.Sub(a.AddScaled(ab, u)).Norm()
}
