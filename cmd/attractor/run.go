package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/attractor/internal/automation"
	"github.com/san-kum/attractor/internal/config"
	"github.com/san-kum/attractor/internal/dynamo"
	"github.com/san-kum/attractor/internal/experiment"
	"github.com/san-kum/attractor/internal/export"
	"github.com/san-kum/attractor/internal/logger"
	"github.com/san-kum/attractor/internal/metrics"
	"github.com/san-kum/attractor/internal/sim"
	"github.com/san-kum/attractor/internal/tui"
)

const defaultArchiveDir = ".attractor"

// runFlags are the integrator overrides shared by run, analyze, sweep and
// ensemble.
type runFlags struct {
	configFile string
	preset     string
	method     string
	dt         float64
	steps      int
	burnIn     int
	tolerance  float64
	minStep    float64
	maxStep    float64
	horizon    float64
	seed       int64
	x0         [3]float64
	params     []string

	// set when the flags gave only some axes of a new initial state
	partialInitial bool
}

func (r *runFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&r.configFile, "config", "", "run file (yaml)")
	f.StringVar(&r.preset, "preset", "", "integrator preset (see 'attractor presets')")
	f.StringVar(&r.method, "method", "", "integration method (euler|heun|rk4|rkf45|dp5)")
	f.Float64Var(&r.dt, "dt", 0, "step size, or first trial step for adaptive methods")
	f.IntVar(&r.steps, "steps", 0, "number of recorded steps")
	f.IntVar(&r.burnIn, "burn-in", 0, "steps integrated and discarded before recording")
	f.Float64Var(&r.tolerance, "tolerance", 0, "adaptive error tolerance")
	f.Float64Var(&r.minStep, "min-step", 0, "adaptive minimum step")
	f.Float64Var(&r.maxStep, "max-step", 0, "adaptive maximum step")
	f.Float64Var(&r.horizon, "horizon", 0, "adaptive: stop at this integrated time")
	f.Int64Var(&r.seed, "seed", 0, "random seed for ensembles")
	f.Float64Var(&r.x0[0], "x0", 0, "initial x")
	f.Float64Var(&r.x0[1], "y0", 0, "initial y")
	f.Float64Var(&r.x0[2], "z0", 0, "initial z")
	f.StringArrayVar(&r.params, "param", nil, "parameter override name=value (repeatable)")
}

// resolve layers defaults, preset, run file and flags, in that order.
func (r *runFlags) resolve(cmd *cobra.Command, args []string) (*config.Run, error) {
	name := ""
	if len(args) > 0 {
		name = args[0]
	}

	cfg := config.DefaultRun()
	if r.preset != "" {
		cfg = config.GetPreset(r.preset, cfg.System)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", r.preset, config.ListPresets())
		}
	}
	if r.configFile != "" {
		var err error
		if cfg, err = config.LoadOver(r.configFile, cfg); err != nil {
			return nil, err
		}
		logger.Debug("loaded run file", "path", r.configFile, "system", cfg.System)
	}
	if name != "" {
		cfg.System = name
	}

	f := cmd.Flags()
	if f.Changed("method") {
		cfg.Method = r.method
	}
	if f.Changed("dt") {
		dt := r.dt
		cfg.Dt = &dt
	}
	if f.Changed("steps") {
		n := r.steps
		cfg.Steps = &n
	}
	if f.Changed("burn-in") {
		b := r.burnIn
		cfg.BurnIn = &b
	}
	if f.Changed("tolerance") {
		tol := r.tolerance
		cfg.Tolerance = &tol
	}
	if f.Changed("min-step") {
		lo := r.minStep
		cfg.MinStep = &lo
	}
	if f.Changed("max-step") {
		hi := r.maxStep
		cfg.MaxStep = &hi
	}
	if f.Changed("horizon") {
		cfg.Horizon = r.horizon
	}
	if f.Changed("seed") {
		cfg.Seed = r.seed
	}
	for i, flag := range []string{"x0", "y0", "z0"} {
		if !f.Changed(flag) {
			continue
		}
		if cfg.Initial == nil {
			cfg.Initial = &[3]float64{}
			r.partialInitial = true
		}
		cfg.Initial[i] = r.x0[i]
	}
	overrides, err := parseParamFlags(r.params)
	if err != nil {
		return nil, err
	}
	if len(overrides) > 0 {
		if cfg.Params == nil {
			cfg.Params = make(map[string]float64, len(overrides))
		}
		for k, v := range overrides {
			cfg.Params[k] = v
		}
	}
	return cfg, nil
}

// fillInitial takes the axes the flags left out from the system.
func fillInitial(cmd *cobra.Command, cfg *config.Run, sysInitial dynamo.State) {
	for i, flag := range []string{"x0", "y0", "z0"} {
		if !cmd.Flags().Changed(flag) {
			cfg.Initial[i] = sysInitial[i]
		}
	}
}

// prepare resolves the flags and builds the experiment for the named system.
func (r *runFlags) prepare(cmd *cobra.Command, args []string) (*config.Run, *experiment.Experiment, error) {
	cfg, err := r.resolve(cmd, args)
	if err != nil {
		return nil, nil, err
	}
	def, err := openRegistry(cmd.Context()).Lookup(cfg.System)
	if err != nil {
		return nil, nil, err
	}
	if r.partialInitial {
		fillInitial(cmd, cfg, def.Initial)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	exp, err := experiment.New(def, cfg.Experiment())
	if err != nil {
		return nil, nil, err
	}
	return cfg, exp, nil
}

func newRunCmd() *cobra.Command {
	var (
		rf         runFlags
		pf         postFlags
		out        string
		progress   bool
		chart      bool
		archive    bool
		archiveDir string
		saveConfig string
	)
	cmd := &cobra.Command{
		Use:   "run [name]",
		Short: "integrate a system and write its trajectory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && rf.configFile == "" {
				return fmt.Errorf("need a system name or --config")
			}
			cfg, exp, err := rf.prepare(cmd, args)
			if err != nil {
				return err
			}
			pf.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			if saveConfig != "" {
				if err := config.Save(saveConfig, cfg); err != nil {
					return err
				}
			}
			if out == "" {
				out = cfg.Output
			}

			set := metrics.Standard()
			exp.Simulator().AddObserver(set)
			res, err := execute(cmd.Context(), exp, progress)
			if err != nil {
				return err
			}
			printSummary(exp, res, set)

			if chart {
				w := os.Stdout
				if out == "-" {
					w = os.Stderr
				}
				fmt.Fprintln(w, plotAxis(res.Trajectory, 0, "x over samples"))
				if exp.Integrator().Method.Adaptive() {
					fmt.Fprintln(w, plotStepSizes(res.Trajectory))
				}
			}
			if archive {
				id, err := archiveRun(archiveDir, exp, res)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "archived as %s\n", id)
			}

			processed, curve, err := automation.PostProcess(res.Trajectory, cfg)
			if err != nil {
				return err
			}
			if err := writeCurve(pf.curve, curve); err != nil {
				return err
			}
			if out != "" {
				if err := writeOutput(out, runData(exp, res), processed); err != nil {
					return err
				}
			}
			if res.Status == sim.Failed {
				return res.Err
			}
			return nil
		},
	}
	rf.register(cmd)
	pf.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the trajectory to a .csv or .json file (- for stdout)")
	cmd.Flags().BoolVar(&progress, "progress", false, "show a live progress view")
	cmd.Flags().BoolVar(&chart, "chart", false, "print charts of x and, for adaptive methods, the step size")
	cmd.Flags().BoolVar(&archive, "archive", false, "keep the raw trajectory in the run archive")
	cmd.Flags().StringVar(&archiveDir, "archive-dir", defaultArchiveDir, "run archive directory")
	cmd.Flags().StringVar(&saveConfig, "save-config", "", "write the resolved run file to this path")
	return cmd
}

func execute(ctx context.Context, exp *experiment.Experiment, progress bool) (*sim.Result, error) {
	if !progress {
		return exp.Run(ctx)
	}
	run := exp.Integrator()
	def := exp.Definition()
	return tui.Run(ctx, def.Name, run.Steps, run.Method, exp.Simulator(), exp.Run)
}

func printSummary(exp *experiment.Experiment, res *sim.Result, set metrics.Set) {
	run := exp.Integrator()
	st := res.Stats

	w := tabwriter.NewWriter(os.Stderr, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "system\t%s\n", exp.Definition().Name)
	fmt.Fprintf(w, "method\t%s\n", run.Method)
	fmt.Fprintf(w, "status\t%s\n", res.Status)
	fmt.Fprintf(w, "samples\t%d\n", res.Trajectory.Len())
	if run.Method.Adaptive() {
		fmt.Fprintf(w, "accepted/rejected\t%d/%d\n", st.Accepted, st.Rejected)
		fmt.Fprintf(w, "dt range\t[%.3g, %.3g]\n", st.MinDt, st.MaxDt)
		fmt.Fprintf(w, "max error\t%.3g\n", st.MaxError)
	}
	fmt.Fprintf(w, "time\t%.4g\n", st.Time)
	for _, m := range set {
		fmt.Fprintf(w, "%s\t%.4g\n", m.Name(), m.Value())
		if s, ok := m.(*metrics.Stability); ok {
			if step, escaped := s.FirstEscape(); escaped {
				fmt.Fprintf(w, "escaped at step\t%d\n", step)
			}
		}
	}
	fmt.Fprintf(w, "elapsed\t%s\n", st.Elapsed)
	if res.Err != nil {
		fmt.Fprintf(w, "error\t%v\n", res.Err)
	}
	_ = w.Flush()
}

func runData(exp *experiment.Experiment, res *sim.Result) export.RunData {
	def := exp.Definition()
	run := exp.Integrator()
	return export.RunData{
		System: def.Name,
		Method: run.Method.String(),
		Params: def.Params.Map(),
		Dt:     run.Dt,
		Status: res.Status.String(),
		Steps:  run.Steps,
	}
}

func runMetadata(exp *experiment.Experiment, x0 dynamo.State, res *sim.Result) export.RunMetadata {
	def := exp.Definition()
	run := exp.Integrator()
	meta := export.RunMetadata{
		System:   def.Name,
		Method:   run.Method.String(),
		Params:   def.Params.Map(),
		Initial:  x0,
		Dt:       run.Dt,
		Steps:    run.Steps,
		BurnIn:   run.BurnIn,
		Status:   res.Status.String(),
		Accepted: res.Stats.Accepted,
		Rejected: res.Stats.Rejected,
	}
	if res.Err != nil {
		meta.Error = res.Err.Error()
	}
	return meta
}

func archiveRun(dir string, exp *experiment.Experiment, res *sim.Result) (string, error) {
	a := export.NewArchive(dir)
	if err := a.Init(); err != nil {
		return "", err
	}
	return a.Save(runMetadata(exp, exp.Initial(), res), res.Trajectory)
}
