package automation

import (
	"github.com/san-kum/attractor/internal/config"
	"github.com/san-kum/attractor/internal/dynamo"
	"github.com/san-kum/attractor/internal/postprocess"
)

// PostProcess runs the steps of run.Post in order: trim, percent trim,
// stride, resample, Douglas-Peucker, smoothing. Scale and centring come
// last. The fitted curve is returned when smoothing ran.
func PostProcess(t *dynamo.Trajectory, run *config.Run) (*dynamo.Trajectory, *postprocess.Curve, error) {
	pc := run.Post
	if err := pc.Validate(); err != nil {
		return nil, nil, err
	}

	var err error
	if pc.TrimHead > 0 || pc.TrimTail > 0 {
		if t, err = postprocess.Trim(t, pc.TrimHead, pc.TrimTail, postprocess.TrimOptions{}); err != nil {
			return nil, nil, err
		}
	}
	if pc.TrimStart > 0 || pc.TrimEnd < 100 {
		if t, err = postprocess.TrimPercent(t, pc.TrimStart, pc.TrimEnd); err != nil {
			return nil, nil, err
		}
	}
	if pc.Stride > 1 {
		if t, err = postprocess.Stride(t, pc.Stride); err != nil {
			return nil, nil, err
		}
	}
	if pc.Resample > 0 {
		if t, err = postprocess.Resample(t, pc.Resample); err != nil {
			return nil, nil, err
		}
	}
	if pc.RDP > 0 {
		if t, err = postprocess.DouglasPeucker(t, pc.RDP); err != nil {
			return nil, nil, err
		}
	}

	var curve *postprocess.Curve
	if pc.Smooth != nil {
		if curve, err = postprocess.Smooth(t, *pc.Smooth); err != nil {
			return nil, nil, err
		}
		n := pc.Samples
		if n == 0 {
			n = curve.DefaultSamples()
		}
		if t, err = curve.Sample(n); err != nil {
			return nil, nil, err
		}
	}

	if run.Scale != 1 || run.Center {
		if t, err = postprocess.Transform(t, run.Scale, run.Center); err != nil {
			return nil, nil, err
		}
	}
	return t, curve, nil
}
