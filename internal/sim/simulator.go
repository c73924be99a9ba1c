package sim

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/san-kum/attractor/internal/dynamo"
	"github.com/san-kum/attractor/internal/integrators"
	"github.com/san-kum/attractor/internal/logger"
)

// maxPrealloc bounds the initial sample buffer of a run.
const maxPrealloc = 1 << 20

// Simulator drives one system. A Simulator is not safe for concurrent
// use; see Ensemble.
type Simulator struct {
	sys       dynamo.System
	stepper   dynamo.Stepper
	adaptive  dynamo.AdaptiveStepper
	observers []dynamo.Observer
}

func New(sys dynamo.System) *Simulator {
	return &Simulator{sys: sys}
}

// UseStepper overrides the fixed-step scheme chosen from Config.Method.
func (s *Simulator) UseStepper(st dynamo.Stepper) { s.stepper = st }

// UseAdaptive overrides the embedded scheme chosen from Config.Method.
func (s *Simulator) UseAdaptive(a dynamo.AdaptiveStepper) { s.adaptive = a }

func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

// Run integrates from x0. Invalid settings fail before any step with a
// *dynamo.ConfigError. Everything that happens after the first step is
// reported through the Result.
func (s *Simulator) Run(ctx context.Context, x0 dynamo.State, cfg dynamo.Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !x0.IsValid() {
		return nil, dynamo.NewConfigError("initial", x0, "must be finite")
	}

	r := &run{
		sim:    s,
		cfg:    cfg,
		start:  time.Now(),
		result: &Result{Status: Initializing},
	}
	r.traj = dynamo.NewTrajectory(min(cfg.Steps+1, maxPrealloc))
	r.result.Trajectory = r.traj
	r.result.Stats.MinDt = math.Inf(1)

	var err error
	if cfg.Method.Adaptive() {
		err = r.prepareAdaptive()
	} else {
		err = r.prepareFixed()
	}
	if err != nil {
		return nil, err
	}

	r.emit(dynamo.NewSample(0, 0, x0))
	r.result.Status = Stepping

	if cfg.Method.Adaptive() {
		r.adaptiveLoop(ctx, x0)
	} else {
		r.fixedLoop(ctx, x0)
	}

	r.result.Stats.Elapsed = time.Since(r.start)
	if r.result.Stats.Accepted == 0 {
		r.result.Stats.MinDt = 0
	}
	logger.For("sim").Debug("run finished",
		"method", cfg.Method,
		"status", r.result.Status,
		"samples", r.traj.Len(),
		"accepted", r.result.Stats.Accepted,
		"rejected", r.result.Stats.Rejected,
		"elapsed", r.result.Stats.Elapsed)
	return r.result, nil
}

type run struct {
	sim      *Simulator
	cfg      dynamo.Config
	stepper  dynamo.Stepper
	adaptive dynamo.AdaptiveStepper
	traj     *dynamo.Trajectory
	result   *Result
	start    time.Time
}

func (r *run) prepareFixed() error {
	if r.sim.stepper != nil {
		r.stepper = r.sim.stepper
		return nil
	}
	st, err := integrators.New(r.cfg.Method)
	if err != nil {
		return err
	}
	r.stepper = st
	return nil
}

func (r *run) prepareAdaptive() error {
	if r.sim.adaptive != nil {
		r.adaptive = r.sim.adaptive
		return nil
	}
	a, err := integrators.NewAdaptive(r.cfg.Method)
	if err != nil {
		return err
	}
	r.adaptive = a
	return nil
}

func (r *run) emit(sample dynamo.Sample) {
	r.traj.Append(sample)
	for _, o := range r.sim.observers {
		o.OnSample(sample)
	}
}

func (r *run) accept(dt float64) {
	st := &r.result.Stats
	st.Accepted++
	st.MinDt = math.Min(st.MinDt, dt)
	st.MaxDt = math.Max(st.MaxDt, dt)
}

func (r *run) complete() {
	r.result.Status = Completed
}

func (r *run) fail(step int, dt float64, x dynamo.State, cause error) {
	r.result.Status = Failed
	r.result.Err = &dynamo.NumericalFailure{
		Step:    step,
		Attempt: r.result.Stats.Attempts,
		Dt:      dt,
		State:   x,
		Err:     cause,
	}
	r.traj.Truncated = true
}

func (r *run) cancel(ctx context.Context) {
	r.result.Status = Truncated
	r.result.Err = fmt.Errorf("%w after %d samples: %w", dynamo.ErrCanceled, r.traj.Len(), ctx.Err())
	r.traj.Truncated = true
}

// fixedLoop runs burn_in+steps iterations of exactly dt and records the
// last steps of them.
func (r *run) fixedLoop(ctx context.Context, x dynamo.State) {
	dt := r.cfg.Dt
	total := r.cfg.Steps + r.cfg.BurnIn
	for i := 1; i <= total; i++ {
		select {
		case <-ctx.Done():
			r.cancel(ctx)
			return
		default:
		}

		next := r.stepper.Step(r.sim.sys, x, dt)
		r.result.Stats.Attempts++
		if !next.IsValid() {
			r.fail(i, dt, next, dynamo.ErrNonFinite)
			return
		}
		x = next
		r.accept(dt)

		if i > r.cfg.BurnIn {
			r.result.Stats.Time += dt
			r.emit(dynamo.NewSample(i-r.cfg.BurnIn, dt, x))
		}
	}
	r.complete()
}

// adaptiveLoop accepts or rejects trial steps until enough samples are
// recorded or the horizon is reached. The first burn_in accepted steps are
// discarded and do not count toward the horizon.
func (r *run) adaptiveLoop(ctx context.Context, x dynamo.State) {
	cfg := r.cfg
	st := &r.result.Stats
	limit := cfg.AttemptLimit()

	dt := cfg.Dt
	burned := 0
	emitted := 0
	t := 0.0

	for {
		if cfg.Steps > 0 && emitted >= cfg.Steps {
			break
		}
		warm := burned >= cfg.BurnIn
		if warm && cfg.Horizon > 0 && t >= cfg.Horizon {
			break
		}

		select {
		case <-ctx.Done():
			r.cancel(ctx)
			return
		default:
		}

		if st.Attempts >= limit {
			r.fail(emitted+1, dt, x, dynamo.ErrAttemptLimit)
			return
		}

		dt = math.Max(cfg.MinStep, math.Min(cfg.MaxStep, dt))
		h := dt
		clipped := false
		if warm && cfg.Horizon > 0 && t+h >= cfg.Horizon {
			h = cfg.Horizon - t
			clipped = true
		}

		a := r.adaptive.Attempt(r.sim.sys, x, h, cfg.Tolerance)
		st.Attempts++
		if a.Accepted && !a.Next.IsValid() {
			r.fail(emitted+1, h, a.Next, dynamo.ErrNonFinite)
			return
		}
		if !a.Accepted {
			st.Rejected++
			if h <= cfg.MinStep {
				if a.NonFinite {
					r.fail(emitted+1, h, a.Next, dynamo.ErrNonFinite)
				} else {
					r.fail(emitted+1, h, x, dynamo.ErrStepUnderflow)
				}
				return
			}
			dt = a.DtNext
			continue
		}

		x = a.Next
		dt = a.DtNext
		r.accept(h)
		st.MaxError = math.Max(st.MaxError, a.Err)

		if !warm {
			burned++
			continue
		}
		t += h
		if clipped {
			t = cfg.Horizon
		}
		st.Time = t
		emitted++
		r.emit(dynamo.NewSample(emitted, h, x))
	}
	r.complete()
}
