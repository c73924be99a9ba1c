package metrics

import (
	"math"

	"github.com/san-kum/attractor/internal/dynamo"
)

// Stability is the fraction of samples that stay inside the box
// |x|,|y|,|z| <= threshold. NaN coordinates count as outside.
type Stability struct {
	threshold float64
	outside   int
	seen      int
	escape    int // step of the first sample outside, -1 until then
}

func NewStability(threshold float64) *Stability {
	return &Stability{threshold: threshold, escape: -1}
}

func (s *Stability) Name() string { return "stability" }

func (s *Stability) OnSample(sample dynamo.Sample) {
	s.seen++
	if s.inside(sample.State()) {
		return
	}
	s.outside++
	if s.escape < 0 {
		s.escape = sample.Step
	}
}

func (s *Stability) inside(x dynamo.State) bool {
	for _, v := range x {
		if !(math.Abs(v) <= s.threshold) {
			return false
		}
	}
	return true
}

func (s *Stability) Value() float64 {
	if s.seen == 0 {
		return 1
	}
	return float64(s.seen-s.outside) / float64(s.seen)
}

// FirstEscape reports the step of the first sample that left the box.
func (s *Stability) FirstEscape() (step int, ok bool) {
	return s.escape, s.escape >= 0
}

func (s *Stability) Reset() {
	s.outside, s.seen, s.escape = 0, 0, -1
}
