package main

import (
	"fmt"
	"os"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/attractor/internal/config"
	"github.com/san-kum/attractor/internal/dynamo"
	"github.com/san-kum/attractor/internal/export"
	"github.com/san-kum/attractor/internal/postprocess"
)

const chartWidth = 80

// postFlags exposes config.PostConfig and the geometry transform on a
// command. Only flags the user set override the file or defaults.
type postFlags struct {
	post   config.PostConfig
	smooth float64
	curve  string
	scale  float64
	center bool
}

func (p *postFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVar(&p.post.TrimHead, "trim-head", 0, "drop this many samples from the start")
	f.IntVar(&p.post.TrimTail, "trim-tail", 0, "drop this many samples from the end")
	f.Float64Var(&p.post.TrimStart, "trim-start", 0, "keep from this percent of the trajectory")
	f.Float64Var(&p.post.TrimEnd, "trim-end", 100, "keep up to this percent of the trajectory")
	f.IntVar(&p.post.Stride, "stride", 0, "keep every n-th sample")
	f.IntVar(&p.post.Resample, "resample", 0, "resample to this many points evenly spaced by arc length")
	f.Float64Var(&p.post.RDP, "rdp", 0, "Douglas-Peucker tolerance")
	f.Float64Var(&p.smooth, "smooth", 0, "fit a Bezier curve with this strength in [0,1]")
	f.IntVar(&p.post.Samples, "samples", 0, "points sampled from the smoothed curve [default: 4 per control point]")
	f.StringVar(&p.curve, "curve", "", "write the Bezier control points to this JSON file")
	f.Float64Var(&p.scale, "scale", 1, "uniform scale applied to the output")
	f.BoolVar(&p.center, "center", false, "move the centroid to the origin")
}

// apply overlays the flags the user set on dst.
func (p *postFlags) apply(cmd *cobra.Command, dst *config.Run) {
	f := cmd.Flags()
	if f.Changed("trim-head") {
		dst.Post.TrimHead = p.post.TrimHead
	}
	if f.Changed("trim-tail") {
		dst.Post.TrimTail = p.post.TrimTail
	}
	if f.Changed("trim-start") {
		dst.Post.TrimStart = p.post.TrimStart
	}
	if f.Changed("trim-end") {
		dst.Post.TrimEnd = p.post.TrimEnd
	}
	if f.Changed("stride") {
		dst.Post.Stride = p.post.Stride
	}
	if f.Changed("resample") {
		dst.Post.Resample = p.post.Resample
	}
	if f.Changed("rdp") {
		dst.Post.RDP = p.post.RDP
	}
	if f.Changed("smooth") {
		s := p.smooth
		dst.Post.Smooth = &s
	}
	if f.Changed("samples") {
		dst.Post.Samples = p.post.Samples
	}
	if f.Changed("scale") {
		dst.Scale = p.scale
	}
	if f.Changed("center") {
		dst.Center = p.center
	}
}

func writeCurve(path string, curve *postprocess.Curve) error {
	if path == "" {
		return nil
	}
	if curve == nil {
		return fmt.Errorf("--curve needs smoothing enabled (--smooth)")
	}
	if err := export.WriteCurveFile(path, curve); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "curve written to %s (%d control points)\n", path, len(curve.Points))
	return nil
}

// writeOutput writes t as CSV, or as JSON when the path ends in .json.
// "-" writes CSV to stdout.
func writeOutput(path string, data export.RunData, t *dynamo.Trajectory) error {
	if path == "-" {
		return export.WriteCSV(os.Stdout, t)
	}
	if err := export.WriteTrajectoryFile(path, data, t); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %d samples to %s\n", t.Len(), path)
	return nil
}

// downsample picks at most n evenly spaced values so charts stay readable.
func downsample(data []float64, n int) []float64 {
	if len(data) <= n || n < 2 {
		return data
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = data[i*(len(data)-1)/(n-1)]
	}
	return out
}

func plotAxis(t *dynamo.Trajectory, axis int, caption string) string {
	data := downsample(t.Axis(axis), chartWidth*4)
	if len(data) == 0 {
		return ""
	}
	return asciigraph.Plot(data,
		asciigraph.Height(12),
		asciigraph.Width(chartWidth),
		asciigraph.Caption(caption),
	)
}

// plotStepSizes charts the step size of every sample after the first.
func plotStepSizes(t *dynamo.Trajectory) string {
	if t.Len() < 3 {
		return ""
	}
	dts := make([]float64, 0, t.Len()-1)
	for _, s := range t.Samples[1:] {
		dts = append(dts, s.Dt)
	}
	return asciigraph.Plot(downsample(dts, chartWidth*4),
		asciigraph.Height(8),
		asciigraph.Width(chartWidth),
		asciigraph.Caption("step size (dt)"),
	)
}
