package sim

import (
	"context"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/attractor/internal/dynamo"
)

// Factory builds a System owned by a single run. Bound expression systems
// keep per-run scratch state, so members of an ensemble never share one.
type Factory func() (dynamo.System, error)

// Ensemble integrates the same system from several initial states
// concurrently.
type Ensemble struct {
	factory Factory
	workers int
}

func NewEnsemble(factory Factory, workers int) *Ensemble {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Ensemble{factory: factory, workers: workers}
}

// Run returns one Result per initial state, in input order. Only setup
// errors (config, factory) abort the ensemble; numerical failures stay in
// the individual results.
func (e *Ensemble) Run(ctx context.Context, x0s []dynamo.State, cfg dynamo.Config) ([]*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	results := make([]*Result, len(x0s))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, x0 := range x0s {
		g.Go(func() error {
			sys, err := e.factory()
			if err != nil {
				return err
			}
			res, err := New(sys).Run(ctx, x0, cfg)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Perturbed returns n initial states: x0 itself followed by n-1 copies
// displaced uniformly within ±spread on each axis.
func Perturbed(x0 dynamo.State, n int, spread float64, seed int64) []dynamo.State {
	if n <= 0 {
		return nil
	}
	rng := rand.New(rand.NewSource(seed))
	out := make([]dynamo.State, n)
	out[0] = x0
	for i := 1; i < n; i++ {
		var d dynamo.State
		for j := range d {
			d[j] = (2*rng.Float64() - 1) * spread
		}
		out[i] = x0.Add(d)
	}
	return out
}
