package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/attractor/internal/automation"
	"github.com/san-kum/attractor/internal/config"
	"github.com/san-kum/attractor/internal/export"
)

func newPostCmd() *cobra.Command {
	var (
		pf         postFlags
		out        string
		configFile string
	)
	cmd := &cobra.Command{
		Use:   "post [input.csv]",
		Short: "trim, simplify and smooth an exported trajectory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := args[0]
			t, err := export.ReadCSVFile(in)
			if err != nil {
				return err
			}

			cfg := config.DefaultRun()
			if configFile != "" {
				if cfg, err = config.Load(configFile); err != nil {
					return err
				}
			}
			pf.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			processed, curve, err := automation.PostProcess(t, cfg)
			if err != nil {
				return err
			}
			if err := writeCurve(pf.curve, curve); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "%d -> %d samples\n", t.Len(), processed.Len())

			if out == "" {
				out = strings.TrimSuffix(in, filepath.Ext(in)) + "_post.csv"
			}
			data := export.RunData{
				System: strings.TrimSuffix(filepath.Base(in), filepath.Ext(in)),
				Status: "postprocessed",
				Steps:  processed.Len(),
			}
			return writeOutput(out, data, processed)
		},
	}
	pf.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "output .csv or .json file (- for stdout) [default: <input>_post.csv]")
	cmd.Flags().StringVar(&configFile, "config", "", "take the post block, scale and centring from this run file")
	return cmd
}
