package postprocess

import (
	"github.com/san-kum/attractor/internal/dynamo"
)

type TrimOptions struct {
	// AllowEmpty permits removing every sample.
	AllowEmpty bool
}

// Trim drops head samples from the start and tail samples from the end.
func Trim(t *dynamo.Trajectory, head, tail int, opts TrimOptions) (*dynamo.Trajectory, error) {
	if head < 0 {
		return nil, dynamo.NewConfigError("trim_head", head, "must be >= 0")
	}
	if tail < 0 {
		return nil, dynamo.NewConfigError("trim_tail", tail, "must be >= 0")
	}

	n := t.Len()
	if head+tail >= n {
		if !opts.AllowEmpty && n > 0 {
			return nil, dynamo.NewConfigError("trim", head+tail, "would remove all samples")
		}
		return derive(t, 0), nil
	}
	return slice(t, head, n-tail), nil
}

// TrimPercent keeps the samples between start and end, given as
// percentages of the trajectory. A bound f maps to index int(f·(N-1)),
// both ends inclusive; at least two samples survive whenever the input
// has them.
func TrimPercent(t *dynamo.Trajectory, start, end float64) (*dynamo.Trajectory, error) {
	if !(start >= 0 && start <= 100) {
		return nil, dynamo.NewConfigError("trim_start", start, "must be in [0, 100]")
	}
	if !(end >= 0 && end <= 100) {
		return nil, dynamo.NewConfigError("trim_end", end, "must be in [0, 100]")
	}

	n := t.Len()
	if n < 2 {
		return t.Clone(), nil
	}

	sf := start / 100
	ef := max(sf, end/100)
	si := int(sf * float64(n-1))
	ei := int(ef * float64(n-1))
	if si >= ei {
		if si < n-1 {
			ei = si + 1
		} else {
			si = n - 2
		}
	}
	return slice(t, si, ei+1), nil
}

func slice(t *dynamo.Trajectory, from, to int) *dynamo.Trajectory {
	out := derive(t, to-from)
	out.Samples = append(out.Samples, t.Samples[from:to]...)
	return out
}

func derive(t *dynamo.Trajectory, capacity int) *dynamo.Trajectory {
	out := dynamo.NewTrajectory(capacity)
	if t != nil {
		out.Truncated = t.Truncated
	}
	return out
}
