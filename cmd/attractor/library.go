package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/san-kum/attractor/internal/config"
	"github.com/san-kum/attractor/internal/dynamo"
	"github.com/san-kum/attractor/internal/expr"
	"github.com/san-kum/attractor/internal/registry"
	"github.com/san-kum/attractor/internal/system"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list built-in and custom systems",
		Args:  cobra.NoArgs,
		RunE:  listSystems,
	}
}

func listSystems(cmd *cobra.Command, args []string) error {
	reg := openRegistry(cmd.Context())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tORIGIN\tPARAMS\tMETHOD\tCREATED")
	for _, def := range reg.All() {
		created := "-"
		if !def.Created.IsZero() {
			created = def.Created.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			def.Name,
			def.Origin,
			strings.Join(def.Params.Names(), ","),
			def.Defaults.Method,
			created,
		)
	}
	return w.Flush()
}

func newShowCmd() *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "show [name]",
		Short: "show a system's equations, parameters and defaults",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := openRegistry(cmd.Context()).Lookup(args[0])
			if err != nil {
				return err
			}
			md := describe(def)
			if plain {
				fmt.Print(md)
				return nil
			}
			fmt.Print(renderMarkdown(md))
			return nil
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print raw markdown")
	return cmd
}

func describe(def system.Definition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", def.Name)
	fmt.Fprintf(&b, "_%s system_\n\n", def.Origin)

	b.WriteString("## Equations\n\n```\n")
	for i, eq := range def.Equations {
		fmt.Fprintf(&b, "%s/dt = %s\n", expr.Axes[i], eq)
	}
	b.WriteString("```\n\n")

	if len(def.Params) > 0 {
		b.WriteString("## Parameters\n\n| name | value |\n|---|---|\n")
		for _, p := range def.Params {
			fmt.Fprintf(&b, "| %s | %g |\n", p.Name, p.Value)
		}
		b.WriteString("\n")
	}

	d := def.Defaults
	b.WriteString("## Defaults\n\n")
	fmt.Fprintf(&b, "- initial: (%g, %g, %g)\n", def.Initial[0], def.Initial[1], def.Initial[2])
	fmt.Fprintf(&b, "- method: %s\n", d.Method)
	if d.Method.Adaptive() {
		fmt.Fprintf(&b, "- tolerance: %g, step range [%g, %g]\n", d.Tolerance, d.MinStep, d.MaxStep)
	} else {
		fmt.Fprintf(&b, "- dt: %g\n", d.Dt)
	}
	fmt.Fprintf(&b, "- steps: %d, burn-in: %d\n", d.Steps, d.BurnIn)
	fmt.Fprintf(&b, "- scale: %g\n", d.Scale)

	if note := strings.TrimSpace(def.Note); note != "" {
		b.WriteString("\n## Notes\n\n")
		b.WriteString(note)
		b.WriteString("\n")
	}
	return b.String()
}

func renderMarkdown(md string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

// equationFlags are shared by params and save.
type equationFlags struct {
	dx, dy, dz string
	params     []string
}

func (f *equationFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.dx, "dx", "", "dx/dt expression")
	cmd.Flags().StringVar(&f.dy, "dy", "", "dy/dt expression")
	cmd.Flags().StringVar(&f.dz, "dz", "", "dz/dt expression")
	cmd.Flags().StringArrayVar(&f.params, "param", nil, "parameter value name=value (repeatable)")
}

// resolve fills unset equations from base and returns the detected
// parameters with base values kept and flag values applied.
func (f *equationFlags) resolve(base system.Definition) ([3]string, expr.Params, error) {
	eqs := base.Equations
	for i, v := range []string{f.dx, f.dy, f.dz} {
		if v != "" {
			eqs[i] = v
		}
	}
	params, err := expr.DetectParams(eqs, base.Params)
	if err != nil {
		return eqs, nil, err
	}
	overrides, err := parseParamFlags(f.params)
	if err != nil {
		return eqs, nil, err
	}
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := params.Get(name); !ok {
			return eqs, nil, dynamo.NewConfigError("param", name, "not used by the equations")
		}
		params = params.With(name, overrides[name])
	}
	return eqs, params, nil
}

func newParamsCmd() *cobra.Command {
	var eq equationFlags
	cmd := &cobra.Command{
		Use:   "params",
		Short: "detect the parameters of a set of equations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			base := system.Definition{Equations: [3]string{"0", "0", "0"}}
			eqs, params, err := eq.resolve(base)
			if err != nil {
				return err
			}
			if _, err := expr.CompileSystem(eqs, params.Names()); err != nil {
				return err
			}
			if len(params) == 0 {
				fmt.Println("no parameters")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tVALUE")
			for _, p := range params {
				fmt.Fprintf(w, "%s\t%g\n", p.Name, p.Value)
			}
			return w.Flush()
		},
	}
	eq.register(cmd)
	return cmd
}

func newSaveCmd() *cobra.Command {
	var (
		eq     equationFlags
		x0     [3]float64
		note   string
		force  bool
		preset string
	)
	cmd := &cobra.Command{
		Use:   "save [name]",
		Short: "save a custom system to the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			reg := openRegistry(ctx)
			name := strings.TrimSpace(args[0])

			base := system.NewDraft(name)
			if existing, err := reg.Lookup(name); err == nil && !existing.IsBuiltin() {
				base = existing
			}
			eqs, params, err := eq.resolve(base)
			if err != nil {
				return err
			}
			def := base.Clone()
			def.Name = name
			def.Equations = eqs
			def.Params = params
			for i, flag := range []string{"x0", "y0", "z0"} {
				if cmd.Flags().Changed(flag) {
					def.Initial[i] = x0[i]
				}
			}
			if cmd.Flags().Changed("note") {
				def.Note = note
			}
			if preset != "" {
				p := config.GetPreset(preset, name)
				if p == nil {
					return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
				}
				if err := applyPresetDefaults(&def.Defaults, p); err != nil {
					return err
				}
			}

			saved, err := reg.Save(ctx, def, registry.SaveOptions{Overwrite: force})
			if err != nil {
				return err
			}
			fmt.Printf("saved %s (%s)\n", saved.Name, saved.ID)
			return nil
		},
	}
	eq.register(cmd)
	cmd.Flags().Float64Var(&x0[0], "x0", 0, "initial x")
	cmd.Flags().Float64Var(&x0[1], "y0", 0, "initial y")
	cmd.Flags().Float64Var(&x0[2], "z0", 0, "initial z")
	cmd.Flags().StringVar(&note, "note", "", "markdown note stored with the system")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing custom system")
	cmd.Flags().StringVar(&preset, "preset", "", "store a preset's integrator settings as the system defaults")
	return cmd
}

func applyPresetDefaults(d *system.RunDefaults, p *config.Run) error {
	m, err := dynamo.ParseMethod(p.Method)
	if err != nil {
		return err
	}
	d.Method = m
	if p.Dt != nil {
		d.Dt = *p.Dt
	}
	if p.Steps != nil {
		d.Steps = *p.Steps
	}
	if p.BurnIn != nil {
		d.BurnIn = *p.BurnIn
	}
	if p.Tolerance != nil {
		d.Tolerance = *p.Tolerance
	}
	if p.MinStep != nil {
		d.MinStep = *p.MinStep
	}
	if p.MaxStep != nil {
		d.MaxStep = *p.MaxStep
	}
	return nil
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [name]",
		Short: "delete a custom system",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := openRegistry(cmd.Context()).Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("deleted %s\n", args[0])
			return nil
		},
	}
}

func newCopyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "copy [name]",
		Short: "duplicate a system into the custom library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dup, err := openRegistry(cmd.Context()).Duplicate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("copied %s to %s\n", args[0], dup.Name)
			return nil
		},
	}
}

func newNoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "note [name] [text]",
		Short: "set the note of a custom system (empty text clears it)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := ""
			if len(args) == 2 {
				text = args[1]
			}
			return openRegistry(cmd.Context()).SetNote(cmd.Context(), args[0], text)
		},
	}
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list integrator presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tMETHOD\tDT\tSTEPS\tBURN-IN\tTOLERANCE")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name, config.DefaultSystem)
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", name, p.Method,
					orDash(p.Dt), orDash(p.Steps), orDash(p.BurnIn), orDash(p.Tolerance))
			}
			return w.Flush()
		},
	}
}

// orDash formats a preset field, "-" when the preset leaves it unset.
func orDash[T int | float64](v *T) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%v", *v)
}
