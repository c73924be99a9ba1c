package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/san-kum/attractor/internal/dynamo"
	"github.com/san-kum/attractor/internal/postprocess"
)

// RunData is the JSON form of a finished run.
type RunData struct {
	System  string             `json:"system"`
	Method  string             `json:"method"`
	Params  map[string]float64 `json:"params,omitempty"`
	Dt      float64            `json:"dt"`
	Status  string             `json:"status"`
	Steps   int                `json:"steps"`
	Samples []dynamo.Sample    `json:"samples"`
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeJSONFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeJSON(f, v); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func WriteRunJSON(w io.Writer, data RunData) error {
	data.Steps = len(data.Samples)
	return writeJSON(w, data)
}

func WriteRunJSONFile(path string, data RunData) error {
	data.Steps = len(data.Samples)
	return writeJSONFile(path, data)
}

// WriteCurve writes Bézier control points and handles.
func WriteCurve(w io.Writer, c *postprocess.Curve) error {
	return writeJSON(w, c)
}

func WriteCurveFile(path string, c *postprocess.Curve) error {
	return writeJSONFile(path, c)
}

// WriteTrajectoryFile writes t as run JSON when path ends in .json and as
// CSV otherwise.
func WriteTrajectoryFile(path string, data RunData, t *dynamo.Trajectory) error {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data.Samples = t.Samples
		return WriteRunJSONFile(path, data)
	}
	return WriteCSVFile(path, t)
}
