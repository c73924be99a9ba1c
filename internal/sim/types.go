package sim

import (
	"time"

	"github.com/san-kum/attractor/internal/dynamo"
)

// Status is the state of a run.
type Status int

const (
	Initializing Status = iota
	Stepping
	Completed
	Failed
	Truncated
)

func (s Status) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Stepping:
		return "stepping"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Truncated:
		return "truncated"
	}
	return "unknown"
}

// Stats counts the work done by a run.
type Stats struct {
	Accepted int
	Rejected int
	Attempts int
	// MaxError is the largest error estimate among accepted adaptive steps.
	MaxError float64
	MinDt    float64
	MaxDt    float64
	Time     float64
	Elapsed  time.Duration
}

// Result is returned by every run that passed validation. When Status is
// Failed or Truncated, Err explains why and Trajectory holds the samples
// produced before the stop.
type Result struct {
	Trajectory *dynamo.Trajectory
	Status     Status
	Err        error
	Stats      Stats
}

func (r *Result) OK() bool {
	return r.Status == Completed
}
