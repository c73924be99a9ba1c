package automation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/attractor/internal/config"
	"github.com/san-kum/attractor/internal/dynamo"
	"github.com/san-kum/attractor/internal/experiment"
	"github.com/san-kum/attractor/internal/export"
	"github.com/san-kum/attractor/internal/logger"
	"github.com/san-kum/attractor/internal/sim"
	"github.com/san-kum/attractor/internal/system"
)

// boundLimit is the coordinate magnitude past which a final state counts
// as escaped.
const boundLimit = 1e6

// Scenario is a scripted sequence of runs. Each step is a run file.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
	// ContinueOnError keeps going after a failed step.
	ContinueOnError bool `yaml:"continue_on_error"`
}

// Step is one run of a scenario. Fields it leaves out take the run file
// defaults.
type Step struct {
	Run *config.Run
}

func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	run := config.DefaultRun()
	if err := node.Decode(run); err != nil {
		return err
	}
	s.Run = run
	return nil
}

func (s Step) MarshalYAML() (any, error) {
	return s.Run, nil
}

// Lookup resolves a system name, usually Registry.Lookup.
type Lookup func(name string) (system.Definition, error)

// StepResult summarises one executed step.
type StepResult struct {
	Index   int
	System  string
	Method  string
	Status  sim.Status
	Samples int
	Final   dynamo.State
	// Bounded is false when the final state left the ±1e6 box.
	Bounded bool
	Output  string
	Err     error
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, dynamo.NewConfigError("steps", 0, "scenario has no steps")
	}
	for i, step := range scenario.Steps {
		if err := step.Run.Validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return &scenario, nil
}

// RunScenario executes the steps in order. Outputs with relative paths are
// written under dir. It stops at the first failing step unless the
// scenario says otherwise and returns the results gathered so far.
func RunScenario(ctx context.Context, scenario *Scenario, lookup Lookup, dir string) ([]StepResult, error) {
	log := logger.For("scenario")
	results := make([]StepResult, 0, len(scenario.Steps))

	var errs []error
	for i, step := range scenario.Steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		log.Info("running step", "scenario", scenario.Name, "step", i+1, "of", len(scenario.Steps), "system", step.Run.System)

		res := runStep(ctx, i, step.Run, lookup, dir)
		results = append(results, res)
		if res.Err == nil {
			continue
		}
		err := fmt.Errorf("step %d (%s): %w", i+1, step.Run.System, res.Err)
		if !scenario.ContinueOnError {
			return results, err
		}
		log.Warn("step failed", "step", i+1, "err", res.Err)
		errs = append(errs, err)
	}
	return results, errors.Join(errs...)
}

func runStep(ctx context.Context, index int, run *config.Run, lookup Lookup, dir string) StepResult {
	out := StepResult{Index: index, System: run.System}

	def, err := lookup(run.System)
	if err != nil {
		out.Err = err
		return out
	}
	exp, err := experiment.New(def, run.Experiment())
	if err != nil {
		out.Err = err
		return out
	}
	out.Method = exp.Integrator().Method.String()

	res, err := exp.Run(ctx)
	if err != nil {
		out.Err = err
		return out
	}
	out.Status = res.Status
	out.Samples = res.Trajectory.Len()
	if last, ok := res.Trajectory.Last(); ok {
		out.Final = last.State()
		out.Bounded = bounded(out.Final)
	}
	if res.Status == sim.Failed {
		out.Err = res.Err
		return out
	}

	processed, _, err := PostProcess(res.Trajectory, run)
	if err != nil {
		out.Err = err
		return out
	}
	if run.Output == "" {
		return out
	}

	path := run.Output
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	data := export.RunData{
		System: def.Name,
		Method: out.Method,
		Params: exp.Definition().Params.Map(),
		Dt:     exp.Integrator().Dt,
		Status: res.Status.String(),
	}
	if err := export.WriteTrajectoryFile(path, data, processed); err != nil {
		out.Err = err
		return out
	}
	out.Output = path
	return out
}

func bounded(s dynamo.State) bool {
	for _, v := range s {
		if math.Abs(v) > boundLimit {
			return false
		}
	}
	return s.IsValid()
}

// Tally counts bounded and escaped final states among the steps that ran.
func Tally(results []StepResult) (boundedCount, escapedCount int) {
	for _, r := range results {
		if r.Samples == 0 {
			continue
		}
		if r.Bounded {
			boundedCount++
		} else {
			escapedCount++
		}
	}
	return
}
