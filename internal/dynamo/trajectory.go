package dynamo

// Sample is one recorded point. Step 0 is the initial condition.
type Sample struct {
	Step int     `json:"step"`
	Dt   float64 `json:"dt"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Z    float64 `json:"z"`
}

func NewSample(step int, dt float64, s State) Sample {
	return Sample{Step: step, Dt: dt, X: s[0], Y: s[1], Z: s[2]}
}

func (s Sample) State() State {
	return State{s.X, s.Y, s.Z}
}

// Trajectory is the ordered output of one run. Truncated is set when the
// run stopped early and Samples holds only what was produced.
type Trajectory struct {
	Samples   []Sample
	Truncated bool
}

func NewTrajectory(capacity int) *Trajectory {
	return &Trajectory{Samples: make([]Sample, 0, capacity)}
}

func (t *Trajectory) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Samples)
}

func (t *Trajectory) Append(s Sample) {
	t.Samples = append(t.Samples, s)
}

func (t *Trajectory) Clone() *Trajectory {
	if t == nil {
		return NewTrajectory(0)
	}
	out := &Trajectory{Samples: make([]Sample, len(t.Samples)), Truncated: t.Truncated}
	copy(out.Samples, t.Samples)
	return out
}

func (t *Trajectory) States() []State {
	out := make([]State, len(t.Samples))
	for i, s := range t.Samples {
		out[i] = s.State()
	}
	return out
}

// Axis returns one coordinate column, 0 for x, 1 for y, 2 for z.
func (t *Trajectory) Axis(i int) []float64 {
	out := make([]float64, len(t.Samples))
	for j, s := range t.Samples {
		out[j] = s.State()[i]
	}
	return out
}

func (t *Trajectory) Last() (Sample, bool) {
	if t.Len() == 0 {
		return Sample{}, false
	}
	return t.Samples[len(t.Samples)-1], true
}
