package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/attractor/internal/automation"
)

func newBatchCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run every step of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := automation.LoadScenario(args[0])
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = filepath.Dir(args[0])
			}
			if err := os.MkdirAll(outDir, 0755); err != nil {
				return err
			}

			reg := openRegistry(cmd.Context())
			results, runErr := automation.RunScenario(cmd.Context(), sc, reg.Lookup, outDir)

			if sc.Name != "" {
				fmt.Printf("scenario: %s\n", sc.Name)
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STEP\tSYSTEM\tMETHOD\tSTATUS\tSAMPLES\tBOUNDED\tOUTPUT")
			for _, r := range results {
				status := r.Status.String()
				if r.Err != nil && r.Samples == 0 {
					status = "error"
				}
				output := r.Output
				if output == "" {
					output = "-"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%t\t%s\n",
					r.Index+1, r.System, r.Method, status, r.Samples, r.Bounded, output)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			bounded, escaped := automation.Tally(results)
			fmt.Printf("%d bounded, %d escaped\n", bounded, escaped)
			return runErr
		},
	}
	cmd.Flags().StringVar(&outDir, "out-dir", "", "directory for relative outputs [default: the scenario's directory]")
	return cmd
}
