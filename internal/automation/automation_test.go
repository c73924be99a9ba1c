package automation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/attractor/internal/config"
	"github.com/san-kum/attractor/internal/dynamo"
	"github.com/san-kum/attractor/internal/export"
	"github.com/san-kum/attractor/internal/sim"
	"github.com/san-kum/attractor/internal/system"
)

func builtins(name string) (system.Definition, error) {
	def, ok := system.LookupBuiltin(name)
	if !ok {
		return system.Definition{}, dynamo.ErrNotFound
	}
	return def, nil
}

func writeScenario(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))
	return path
}

func TestPostProcessOrder(t *testing.T) {
	traj := dynamo.NewTrajectory(101)
	for i := 0; i <= 100; i++ {
		traj.Append(dynamo.NewSample(i, 0.1, dynamo.State{float64(i), 0, 0}))
	}

	run := config.DefaultRun()
	run.Post.TrimHead = 10
	run.Post.TrimTail = 10
	run.Post.Stride = 4
	run.Scale = 2

	out, curve, err := PostProcess(traj, run)
	require.NoError(t, err)
	assert.Nil(t, curve)
	require.Greater(t, out.Len(), 2)
	first := out.Samples[0]
	assert.Equal(t, 10, first.Step)
	assert.Equal(t, 20.0, first.X, "scale runs after trimming")
	last, _ := out.Last()
	assert.Equal(t, 90, last.Step)
}

func TestPostProcessSmoothReturnsCurve(t *testing.T) {
	traj := dynamo.NewTrajectory(50)
	for i := 0; i < 50; i++ {
		traj.Append(dynamo.NewSample(i, 0.1, dynamo.State{float64(i), float64(i * i), 0}))
	}
	run := config.DefaultRun()
	s := 0.5
	run.Post.Smooth = &s
	run.Post.Samples = 64

	out, curve, err := PostProcess(traj, run)
	require.NoError(t, err)
	require.NotNil(t, curve)
	assert.Equal(t, 64, out.Len())
}

func TestPostProcessRejectsInvalid(t *testing.T) {
	run := config.DefaultRun()
	run.Post.Stride = -1
	_, _, err := PostProcess(dynamo.NewTrajectory(0), run)
	var ce *dynamo.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "stride", ce.Field)
}

func TestLoadScenarioDefaults(t *testing.T) {
	path := writeScenario(t, `
name: tour
description: two classics
steps:
  - system: Lorenz
    steps: 100
  - system: Rossler
    method: dp5
    post:
      stride: 2
`)
	sc, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "tour", sc.Name)
	require.Len(t, sc.Steps, 2)

	first := sc.Steps[0].Run
	assert.Equal(t, "Lorenz", first.System)
	require.NotNil(t, first.Steps)
	assert.Equal(t, 100, *first.Steps)
	assert.Equal(t, 1.0, first.Scale, "unset fields keep run defaults")
	assert.Equal(t, 100.0, first.Post.TrimEnd)

	second := sc.Steps[1].Run
	assert.Equal(t, "dp5", second.Method)
	assert.Equal(t, 2, second.Post.Stride)
}

func TestLoadScenarioRejects(t *testing.T) {
	_, err := LoadScenario(writeScenario(t, "name: empty\nsteps: []\n"))
	assert.Error(t, err)

	_, err = LoadScenario(writeScenario(t, "steps:\n  - system: Lorenz\n    dt: -1\n"))
	var ce *dynamo.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "dt", ce.Field)

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRunScenarioWritesOutputs(t *testing.T) {
	dir := t.TempDir()
	sc, err := LoadScenario(writeScenario(t, `
name: outputs
steps:
  - system: Lorenz
    steps: 200
    burn_in: 0
    output: lorenz.csv
  - system: Rossler
    steps: 50
    burn_in: 0
    output: rossler.json
`))
	require.NoError(t, err)

	results, err := RunScenario(context.Background(), sc, builtins, dir)
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, r := range results {
		assert.Equal(t, sim.Completed, r.Status, r.System)
		assert.True(t, r.Bounded, r.System)
		assert.Equal(t, "rk4", r.Method)
	}
	assert.Equal(t, 201, results[0].Samples)

	traj, err := export.ReadCSVFile(filepath.Join(dir, "lorenz.csv"))
	require.NoError(t, err)
	assert.Equal(t, 201, traj.Len())
	assert.FileExists(t, filepath.Join(dir, "rossler.json"))

	b, e := Tally(results)
	assert.Equal(t, 2, b)
	assert.Equal(t, 0, e)
}

func TestRunScenarioStopsOnError(t *testing.T) {
	ten := 10
	sc := &Scenario{Steps: []Step{
		{Run: &config.Run{System: "Nowhere", Scale: 1, Post: config.PostConfig{TrimEnd: 100}}},
		{Run: &config.Run{System: "Lorenz", Steps: &ten, Scale: 1, Post: config.PostConfig{TrimEnd: 100}}},
	}}

	results, err := RunScenario(context.Background(), sc, builtins, t.TempDir())
	require.ErrorIs(t, err, dynamo.ErrNotFound)
	assert.Len(t, results, 1)

	sc.ContinueOnError = true
	results, err = RunScenario(context.Background(), sc, builtins, t.TempDir())
	require.ErrorIs(t, err, dynamo.ErrNotFound)
	require.Len(t, results, 2)
	assert.NoError(t, results[1].Err)
	assert.Equal(t, 11, results[1].Samples)
}

func TestRunScenarioCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sc := &Scenario{Steps: []Step{{Run: config.DefaultRun()}}}
	results, err := RunScenario(ctx, sc, builtins, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}

func TestBounded(t *testing.T) {
	assert.True(t, bounded(dynamo.State{1, -1, 1e5}))
	assert.False(t, bounded(dynamo.State{2e6, 0, 0}))
}
