package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/attractor/internal/dynamo"
)

// Header is the column layout of trajectory CSV files.
var Header = []string{"steps", "dt", "x", "y", "z"}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteCSV writes one row per sample, the initial condition first. Floats
// use the shortest representation that parses back to the same value.
func WriteCSV(w io.Writer, t *dynamo.Trajectory) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}

	row := make([]string, len(Header))
	for _, s := range t.Samples {
		row[0] = strconv.Itoa(s.Step)
		row[1] = formatFloat(s.Dt)
		row[2] = formatFloat(s.X)
		row[3] = formatFloat(s.Y)
		row[4] = formatFloat(s.Z)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteCSVFile(path string, t *dynamo.Trajectory) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, t); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// ReadCSV parses a file written by WriteCSV. Header names are matched
// case-insensitively and surrounding spaces are ignored.
func ReadCSV(r io.Reader) (*dynamo.Trajectory, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)
	cr.TrimLeadingSpace = true

	head, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv: missing header")
		}
		return nil, err
	}
	for i, name := range head {
		if !strings.EqualFold(strings.TrimSpace(name), Header[i]) {
			return nil, fmt.Errorf("csv: column %d is %q, want %q", i+1, name, Header[i])
		}
	}

	t := dynamo.NewTrajectory(1024)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		step, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, fmt.Errorf("csv line %d: steps: %w", line, err)
		}
		var vals [4]float64
		for i := range vals {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[i+1]), 64)
			if err != nil {
				return nil, fmt.Errorf("csv line %d: %s: %w", line, Header[i+1], err)
			}
			vals[i] = v
		}
		t.Append(dynamo.Sample{Step: step, Dt: vals[0], X: vals[1], Y: vals[2], Z: vals[3]})
	}
	return t, nil
}

func ReadCSVFile(path string) (*dynamo.Trajectory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}
