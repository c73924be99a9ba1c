package metrics

import (
	"math"

	"github.com/san-kum/attractor/internal/dynamo"
)

// PathLength is the polyline length through all samples.
type PathLength struct {
	prev   dynamo.State
	seen   bool
	length float64
}

func NewPathLength() *PathLength { return &PathLength{} }

func (p *PathLength) Name() string { return "path_length" }

func (p *PathLength) OnSample(s dynamo.Sample) {
	x := s.State()
	if p.seen {
		p.length += x.Sub(p.prev).Norm()
	}
	p.prev, p.seen = x, true
}

func (p *PathLength) Value() float64 { return p.length }

func (p *PathLength) Reset() { *p = PathLength{} }

// Extent is the diagonal of the axis-aligned bounding box of the samples.
type Extent struct {
	lo, hi dynamo.State
	seen   bool
}

func NewExtent() *Extent { return &Extent{} }

func (e *Extent) Name() string { return "extent" }

func (e *Extent) OnSample(s dynamo.Sample) {
	x := s.State()
	if !e.seen {
		e.lo, e.hi, e.seen = x, x, true
		return
	}
	for i := range x {
		e.lo[i] = math.Min(e.lo[i], x[i])
		e.hi[i] = math.Max(e.hi[i], x[i])
	}
}

// Bounds returns the box corners; both are zero before the first sample.
func (e *Extent) Bounds() (lo, hi dynamo.State) { return e.lo, e.hi }

func (e *Extent) Value() float64 {
	if !e.seen {
		return 0
	}
	return e.hi.Sub(e.lo).Norm()
}

func (e *Extent) Reset() { *e = Extent{} }
