package postprocess

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/attractor/internal/dynamo"
)

const minScale = 0.001

// Centroid is the mean position of the samples.
func Centroid(t *dynamo.Trajectory) dynamo.State {
	var c dynamo.State
	if t.Len() == 0 {
		return c
	}
	for a := 0; a < 3; a++ {
		c[a] = floats.Sum(t.Axis(a)) / float64(t.Len())
	}
	return c
}

// Transform optionally moves the centroid to the origin and then scales
// every position uniformly. Step indices and step sizes are unchanged.
func Transform(t *dynamo.Trajectory, scale float64, center bool) (*dynamo.Trajectory, error) {
	if !(scale >= minScale) {
		return nil, dynamo.NewConfigError("scale", scale, "must be >= 0.001")
	}

	var offset dynamo.State
	if center {
		offset = Centroid(t)
	}

	out := derive(t, t.Len())
	for _, s := range t.Samples {
		p := s.State().Sub(offset).Scale(scale)
		out.Append(dynamo.NewSample(s.Step, s.Dt, p))
	}
	return out, nil
}
