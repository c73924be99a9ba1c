package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/attractor/internal/analysis"
	"github.com/san-kum/attractor/internal/dynamo"
	"github.com/san-kum/attractor/internal/experiment"
	"github.com/san-kum/attractor/internal/export"
	"github.com/san-kum/attractor/internal/integrators"
	"github.com/san-kum/attractor/internal/sim"
)

func parseAxis(name string) (int, error) {
	switch strings.ToLower(name) {
	case "x", "0":
		return 0, nil
	case "y", "1":
		return 1, nil
	case "z", "2":
		return 2, nil
	}
	return 0, dynamo.NewConfigError("axis", name, "must be x, y or z")
}

func newAnalyzeCmd() *cobra.Command {
	var (
		rf        runFlags
		axisName  string
		transient float64
		duration  float64
		portrait  string
		section   float64
	)
	cmd := &cobra.Command{
		Use:   "analyze [name]",
		Short: "estimate the largest Lyapunov exponent and the power spectrum",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			axis, err := parseAxis(axisName)
			if err != nil {
				return err
			}
			cfg, err := rf.resolve(cmd, args)
			if err != nil {
				return err
			}
			// the spectrum needs evenly spaced samples
			if cfg.Method != "" {
				m, err := dynamo.ParseMethod(cfg.Method)
				if err != nil {
					return err
				}
				if m.Adaptive() {
					return dynamo.NewConfigError("method", cfg.Method, "analyze needs a fixed-step method")
				}
			} else {
				cfg.Method = dynamo.RK4.String()
			}
			def, err := openRegistry(cmd.Context()).Lookup(cfg.System)
			if err != nil {
				return err
			}
			if rf.partialInitial {
				fillInitial(cmd, cfg, def.Initial)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			exp, err := experiment.New(def, cfg.Experiment())
			if err != nil {
				return err
			}

			res, err := exp.Run(cmd.Context())
			if err != nil {
				return err
			}
			if !res.OK() {
				return fmt.Errorf("run %s: %w", res.Status, res.Err)
			}
			run := exp.Integrator()
			t := res.Trajectory

			sys, err := exp.System()
			if err != nil {
				return err
			}
			st, err := integrators.New(run.Method)
			if err != nil {
				return err
			}
			lc := analysis.DefaultLyapunovConfig()
			lc.Dt = run.Dt
			lc.Transient = transient
			lc.Duration = duration
			lambda, err := analysis.LargestLyapunov(sys, st, exp.Initial(), lc)
			if err != nil {
				return err
			}

			ps, err := analysis.PowerSpectrum(t.Axis(axis), run.Dt)
			if err != nil {
				return err
			}
			freq, power := ps.Dominant()

			fmt.Printf("analysis: %s (%s, dt=%g)\n\n", def.Name, run.Method, run.Dt)
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "largest lyapunov exponent\t%.4f\n", lambda)
			if lambda > 0.01 {
				fmt.Fprintf(w, "behaviour\tchaotic\n")
			} else {
				fmt.Fprintf(w, "behaviour\tregular\n")
			}
			fmt.Fprintf(w, "dominant frequency (%s)\t%.4f\n", axisName, freq)
			if freq > 0 {
				fmt.Fprintf(w, "period\t%.4f\n", 1/freq)
			}
			fmt.Fprintf(w, "peak power\t%.4g\n", power)
			_ = w.Flush()
			fmt.Println()

			// the low end of the spectrum carries the structure
			quarter := len(ps.Power) / 4
			if quarter > 8 {
				fmt.Println(asciigraph.Plot(downsample(ps.Power[1:quarter], chartWidth*2),
					asciigraph.Height(15),
					asciigraph.Width(chartWidth),
					asciigraph.Caption(fmt.Sprintf("power spectrum (%s)", axisName)),
				))
				fmt.Println()
			}

			if portrait != "" {
				if len(portrait) != 2 {
					return dynamo.NewConfigError("portrait", portrait, "expected two axes such as xz")
				}
				a, err := parseAxis(portrait[:1])
				if err != nil {
					return err
				}
				b, err := parseAxis(portrait[1:])
				if err != nil {
					return err
				}
				fmt.Printf("phase portrait (%s)\n", portrait)
				fmt.Println(analysis.Plot(analysis.Project(t, a, b), chartWidth, 24))
			}
			if cmd.Flags().Changed("section") {
				pts := analysis.PoincareSection(t, axis, section)
				fmt.Printf("poincare section %s=%g: %d crossings\n", axisName, section, len(pts))
				if len(pts) > 0 {
					fmt.Println(analysis.Plot(pts, chartWidth, 24))
				}
			}
			return nil
		},
	}
	rf.register(cmd)
	cmd.Flags().StringVar(&axisName, "axis", "x", "axis for the spectrum and the section (x|y|z)")
	cmd.Flags().Float64Var(&transient, "transient", 10, "time integrated before the Lyapunov estimate")
	cmd.Flags().Float64Var(&duration, "duration", 100, "time averaged by the Lyapunov estimate")
	cmd.Flags().StringVar(&portrait, "portrait", "", "draw a phase portrait on two axes, e.g. xz")
	cmd.Flags().Float64Var(&section, "section", 0, "draw the Poincare section where --axis crosses this level upward")
	return cmd
}

func newSweepCmd() *cobra.Command {
	var (
		rf        runFlags
		param     string
		lo, hi    float64
		count     int
		axisName  string
		transient float64
		record    float64
	)
	cmd := &cobra.Command{
		Use:   "sweep [name]",
		Short: "bifurcation diagram over one parameter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			axis, err := parseAxis(axisName)
			if err != nil {
				return err
			}
			_, exp, err := rf.prepare(cmd, args)
			if err != nil {
				return err
			}
			def := exp.Definition()
			if _, ok := def.Params.Get(param); !ok {
				return dynamo.NewConfigError("param", param, fmt.Sprintf("not a parameter of %s (have %v)", def.Name, def.Params.Names()))
			}
			run := exp.Integrator()
			method := run.Method
			if method.Adaptive() {
				method = dynamo.RK4
			}
			st, err := integrators.New(method)
			if err != nil {
				return err
			}

			bind := func(v float64) (dynamo.System, error) {
				d := def.Clone()
				d.Params = d.Params.With(param, v)
				return d.Bind()
			}
			points, err := analysis.Bifurcation(cmd.Context(), bind, st, analysis.SweepConfig{
				Min:       lo,
				Max:       hi,
				Count:     count,
				Axis:      axis,
				X0:        exp.Initial(),
				Dt:        run.Dt,
				Transient: transient,
				Record:    record,
			})
			if err != nil {
				return err
			}

			fmt.Printf("bifurcation: %s, %s in [%g, %g], %s maxima\n", def.Name, param, lo, hi, axisName)
			fmt.Println(analysis.BifurcationPlot(points, chartWidth, 24))
			return nil
		},
	}
	rf.register(cmd)
	cmd.Flags().StringVar(&param, "sweep", "", "parameter to sweep")
	cmd.Flags().Float64Var(&lo, "min", 0, "first parameter value")
	cmd.Flags().Float64Var(&hi, "max", 1, "last parameter value")
	cmd.Flags().IntVar(&count, "count", 80, "number of parameter values")
	cmd.Flags().StringVar(&axisName, "axis", "x", "axis whose maxima are recorded (x|y|z)")
	cmd.Flags().Float64Var(&transient, "transient", 50, "time discarded per value")
	cmd.Flags().Float64Var(&record, "record", 50, "time recorded per value")
	_ = cmd.MarkFlagRequired("sweep")
	return cmd
}

func newEnsembleCmd() *cobra.Command {
	var (
		rf         runFlags
		runs       int
		spread     float64
		workers    int
		outDir     string
		archiveDir string
	)
	cmd := &cobra.Command{
		Use:   "ensemble [name]",
		Short: "integrate from perturbed initial states in parallel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, exp, err := rf.prepare(cmd, args)
			if err != nil {
				return err
			}
			x0s, results, err := exp.Ensemble(cmd.Context(), runs, spread, workers)
			if err != nil {
				return err
			}

			var a *export.Archive
			if archiveDir != "" {
				a = export.NewArchive(archiveDir)
				if err := a.Init(); err != nil {
					return err
				}
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "RUN\tX0\tSTATUS\tSAMPLES\tFINAL\tID")
			failed := 0
			for i, res := range results {
				if res.Status == sim.Failed {
					failed++
				}
				final := "-"
				if last, ok := res.Trajectory.Last(); ok {
					final = fmt.Sprintf("(%.3f, %.3f, %.3f)", last.X, last.Y, last.Z)
				}
				id := "-"
				if outDir != "" {
					path := filepath.Join(outDir, fmt.Sprintf("run_%03d.csv", i))
					if err := os.MkdirAll(outDir, 0755); err != nil {
						return err
					}
					if err := export.WriteCSVFile(path, res.Trajectory); err != nil {
						return err
					}
				}
				if a != nil {
					if id, err = a.Save(runMetadata(exp, x0s[i], res), res.Trajectory); err != nil {
						return err
					}
				}
				fmt.Fprintf(w, "%d\t(%.4f, %.4f, %.4f)\t%s\t%d\t%s\t%s\n",
					i, x0s[i][0], x0s[i][1], x0s[i][2], res.Status, res.Trajectory.Len(), final, id)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d runs failed", failed, len(results))
			}
			return nil
		},
	}
	rf.register(cmd)
	cmd.Flags().IntVar(&runs, "runs", 8, "number of runs, the first from the unperturbed state")
	cmd.Flags().Float64Var(&spread, "spread", 1e-3, "maximum perturbation per axis")
	cmd.Flags().IntVar(&workers, "workers", runtime.NumCPU(), "parallel workers")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "write each trajectory as run_NNN.csv here")
	cmd.Flags().StringVar(&archiveDir, "archive-dir", "", "also keep every run in this archive")
	return cmd
}
