// Package metrics holds run observers that reduce a trajectory to a single
// number while it is produced.
package metrics

import "github.com/san-kum/attractor/internal/dynamo"

// Metric observes samples and reports one value.
type Metric interface {
	dynamo.Observer
	Name() string
	Value() float64
	Reset()
}

// Set fans samples out to several metrics.
type Set []Metric

func (s Set) OnSample(sample dynamo.Sample) {
	for _, m := range s {
		m.OnSample(sample)
	}
}

func (s Set) Reset() {
	for _, m := range s {
		m.Reset()
	}
}

// Standard is the set reported after a run.
func Standard() Set {
	return Set{NewPathLength(), NewExtent(), NewStability(1e6)}
}
