package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/attractor/internal/export"
)

func newRunsCmd() *cobra.Command {
	var (
		dir   string
		out   string
		chart bool
	)
	cmd := &cobra.Command{
		Use:   "runs [run_id]",
		Short: "list archived runs, or export one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := export.NewArchive(dir)
			if len(args) == 0 {
				return listRuns(a)
			}

			id := args[0]
			meta, err := a.Load(id)
			if err != nil {
				return err
			}
			t, err := a.LoadTrajectory(id)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stderr, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "id\t%s\n", meta.ID)
			fmt.Fprintf(w, "system\t%s\n", meta.System)
			fmt.Fprintf(w, "method\t%s\n", meta.Method)
			fmt.Fprintf(w, "status\t%s\n", meta.Status)
			fmt.Fprintf(w, "initial\t(%g, %g, %g)\n", meta.Initial[0], meta.Initial[1], meta.Initial[2])
			fmt.Fprintf(w, "samples\t%d\n", t.Len())
			for _, name := range sortedParamNames(meta.Params) {
				fmt.Fprintf(w, "param %s\t%g\n", name, meta.Params[name])
			}
			if meta.Error != "" {
				fmt.Fprintf(w, "error\t%s\n", meta.Error)
			}
			_ = w.Flush()

			if chart {
				fmt.Println(plotAxis(t, 0, "x over samples"))
			}
			if out == "" {
				return nil
			}
			data := export.RunData{
				System: meta.System,
				Method: meta.Method,
				Params: meta.Params,
				Dt:     meta.Dt,
				Status: meta.Status,
				Steps:  meta.Steps,
			}
			return writeOutput(out, data, t)
		},
	}
	cmd.Flags().StringVar(&dir, "archive-dir", defaultArchiveDir, "run archive directory")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the run's trajectory to a .csv or .json file (- for stdout)")
	cmd.Flags().BoolVar(&chart, "chart", false, "chart x over the samples")
	return cmd
}

func listRuns(a *export.Archive) error {
	runs, err := a.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSYSTEM\tTIME\tMETHOD\tDT\tSAMPLES\tSTATUS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%g\t%d\t%s\n",
			run.ID,
			run.System,
			run.Timestamp.Local().Format("2006-01-02 15:04:05"),
			run.Method,
			run.Dt,
			run.Samples,
			run.Status,
		)
	}
	return w.Flush()
}

func sortedParamNames(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
