package postprocess

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/attractor/internal/dynamo"
)

func line(n int) *dynamo.Trajectory {
	t := dynamo.NewTrajectory(n)
	for i := 0; i < n; i++ {
		t.Append(dynamo.NewSample(i, 0.1, dynamo.State{float64(i), 0, 0}))
	}
	return t
}

func circle(n int) *dynamo.Trajectory {
	t := dynamo.NewTrajectory(n)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n-1)
		t.Append(dynamo.NewSample(i, 0.01, dynamo.State{math.Cos(a), math.Sin(a), 0}))
	}
	return t
}

func assertEndpoints(t *testing.T, in, out *dynamo.Trajectory) {
	t.Helper()
	require.GreaterOrEqual(t, out.Len(), 2)
	assert.Equal(t, in.Samples[0], out.Samples[0])
	assert.Equal(t, in.Samples[in.Len()-1], out.Samples[out.Len()-1])
}

func TestTrim(t *testing.T) {
	in := line(10)

	out, err := Trim(in, 0, 0, TrimOptions{})
	require.NoError(t, err)
	assert.Equal(t, in.Samples, out.Samples)
	out.Samples[0].X = 99
	assert.Equal(t, 0.0, in.Samples[0].X, "input must not be aliased")

	out, err = Trim(in, 2, 3, TrimOptions{})
	require.NoError(t, err)
	require.Equal(t, 5, out.Len())
	assert.Equal(t, 2, out.Samples[0].Step)
	assert.Equal(t, 6, out.Samples[4].Step)

	_, err = Trim(in, 5, 5, TrimOptions{})
	assert.True(t, errors.Is(err, dynamo.ErrInvalidConfig))

	out, err = Trim(in, 5, 5, TrimOptions{AllowEmpty: true})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())

	_, err = Trim(in, -1, 0, TrimOptions{})
	var ce *dynamo.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "trim_head", ce.Field)
}

func TestTrimKeepsTruncatedFlag(t *testing.T) {
	in := line(5)
	in.Truncated = true
	out, err := Trim(in, 1, 1, TrimOptions{})
	require.NoError(t, err)
	assert.True(t, out.Truncated)
}

func TestTrimPercent(t *testing.T) {
	in := line(101)

	tests := []struct {
		name       string
		start, end float64
		first      int
		last       int
	}{
		{"full range", 0, 100, 0, 100},
		{"middle", 25, 75, 25, 75},
		{"collapsed start", 40, 40, 40, 41},
		{"end before start", 60, 10, 60, 61},
		{"collapsed at end", 100, 100, 99, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := TrimPercent(in, tt.start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.first, out.Samples[0].Step)
			last, _ := out.Last()
			assert.Equal(t, tt.last, last.Step)
		})
	}

	_, err := TrimPercent(in, -1, 50)
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)
	_, err = TrimPercent(in, 0, 101)
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)
}

func TestStride(t *testing.T) {
	in := line(10)

	out, err := Stride(in, 3)
	require.NoError(t, err)
	var steps []int
	for _, s := range out.Samples {
		steps = append(steps, s.Step)
	}
	assert.Equal(t, []int{0, 3, 6, 9}, steps)

	out, err = Stride(in, 4)
	require.NoError(t, err)
	steps = steps[:0]
	for _, s := range out.Samples {
		steps = append(steps, s.Step)
	}
	assert.Equal(t, []int{0, 4, 8, 9}, steps)

	_, err = Stride(in, 0)
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)
}

func TestResample(t *testing.T) {
	in := circle(1001)

	out, err := Resample(in, 50)
	require.NoError(t, err)
	assert.Equal(t, 50, out.Len())
	assertEndpoints(t, in, out)

	for _, s := range out.Samples {
		r := math.Hypot(s.X, s.Y)
		assert.InDelta(t, 1.0, r, 1e-3)
	}

	// Evenly spaced: all chords close to the mean chord.
	mean := 2 * math.Pi / 49
	for i := 1; i < out.Len(); i++ {
		d := out.Samples[i].State().Sub(out.Samples[i-1].State()).Norm()
		assert.InDelta(t, mean, d, 1e-3)
	}

	same, err := Resample(in, 5000)
	require.NoError(t, err)
	assert.Equal(t, in.Samples, same.Samples)

	_, err = Resample(in, 1)
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)
}

func TestResampleZeroLength(t *testing.T) {
	in := dynamo.NewTrajectory(4)
	for i := 0; i < 4; i++ {
		in.Append(dynamo.NewSample(i, 0.1, dynamo.State{1, 1, 1}))
	}
	out, err := Resample(in, 2)
	require.NoError(t, err)
	assert.Equal(t, in.Samples, out.Samples)
}

func TestDouglasPeucker(t *testing.T) {
	in := line(100)
	out, err := DouglasPeucker(in, 1e-9)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Len())
	assertEndpoints(t, in, out)

	c := circle(2001)
	coarse, err := DouglasPeucker(c, 0.01)
	require.NoError(t, err)
	fine, err := DouglasPeucker(c, 0.0001)
	require.NoError(t, err)
	assert.Less(t, coarse.Len(), fine.Len())
	assert.LessOrEqual(t, fine.Len(), c.Len())
	assertEndpoints(t, c, coarse)

	zero, err := DouglasPeucker(c, 0)
	require.NoError(t, err)
	assert.LessOrEqual(t, zero.Len(), c.Len())

	_, err = DouglasPeucker(c, -1)
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)
	_, err = DouglasPeucker(c, math.NaN())
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)
}

func TestSegmentDistanceClampsToSegment(t *testing.T) {
	a, b := dynamo.State{0, 0, 0}, dynamo.State{1, 0, 0}
	assert.InDelta(t, 1.0, segmentDistance(dynamo.State{2, 0, 0}, a, b), 1e-12)
	assert.InDelta(t, 0.5, segmentDistance(dynamo.State{0.5, 0.5, 0}, a, b), 1e-12)
	assert.InDelta(t, 1.0, segmentDistance(dynamo.State{0, 1, 0}, a, a), 1e-12)
}

func TestSmooth(t *testing.T) {
	in := circle(5001)

	low, err := Smooth(in, 0)
	require.NoError(t, err)
	high, err := Smooth(in, 1)
	require.NoError(t, err)
	assert.Less(t, len(low.Points), len(high.Points))

	assert.Equal(t, in.Samples[0].State(), high.Points[0].Co)
	last, _ := in.Last()
	assert.Equal(t, last.State(), high.Points[len(high.Points)-1].Co)

	again, err := Smooth(in, 1)
	require.NoError(t, err)
	assert.Equal(t, high, again, "smoothing must be deterministic")

	_, err = Smooth(in, 1.5)
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)
	_, err = Smooth(line(1), 0.5)
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)
}

func TestSmoothStraightLineHandles(t *testing.T) {
	c, err := Smooth(line(3), 1)
	require.NoError(t, err)
	require.Len(t, c.Points, 2)

	p := c.Points[0]
	assert.InDelta(t, 2/handleFactor, p.Out[0], 1e-12)
	assert.InDelta(t, -2/handleFactor, p.In[0], 1e-12)
}

func TestCurveSample(t *testing.T) {
	in := circle(2001)
	c, err := Smooth(in, 0.9)
	require.NoError(t, err)

	n := c.DefaultSamples()
	out, err := c.Sample(n)
	require.NoError(t, err)
	assert.Equal(t, n, out.Len())
	for _, s := range out.Samples {
		assert.InDelta(t, 1.0, math.Hypot(s.X, s.Y), 0.02)
		assert.Equal(t, 0.0, s.Z)
	}
	assert.InDelta(t, 1.0, out.Samples[0].X, 1e-9)

	_, err = c.Sample(1)
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)
}

func TestCurveSampleBeyondDensePass(t *testing.T) {
	c, err := Smooth(line(5), 0.5)
	require.NoError(t, err)

	n := denseSamples + 500
	out, err := c.Sample(n)
	require.NoError(t, err)
	assert.Equal(t, n, out.Len())
	last, _ := out.Last()
	assert.InDelta(t, 0.0, out.Samples[0].X, 1e-9)
	assert.InDelta(t, 4.0, last.X, 1e-9)
}

func TestTransform(t *testing.T) {
	in := line(5)

	out, err := Transform(in, 2, true)
	require.NoError(t, err)
	assert.Equal(t, -4.0, out.Samples[0].X)
	assert.Equal(t, 4.0, out.Samples[4].X)
	assert.Equal(t, in.Samples[3].Step, out.Samples[3].Step)
	assert.Equal(t, dynamo.State{}, Centroid(out))

	out, err = Transform(in, 1, false)
	require.NoError(t, err)
	assert.Equal(t, in.Samples, out.Samples)

	_, err = Transform(in, 0, false)
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)
}
