package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/attractor/internal/dynamo"
)

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.csv"
)

// Archive stores runs as directories holding a metadata file and the
// trajectory CSV.
type Archive struct {
	baseDir string
}

func NewArchive(baseDir string) *Archive {
	return &Archive{baseDir: baseDir}
}

func (a *Archive) Init() error {
	return os.MkdirAll(a.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	System    string             `json:"system"`
	Method    string             `json:"method"`
	Timestamp time.Time          `json:"timestamp"`
	Params    map[string]float64 `json:"params,omitempty"`
	Initial   dynamo.State       `json:"initial"`
	Dt        float64            `json:"dt"`
	Steps     int                `json:"steps"`
	BurnIn    int                `json:"burn_in"`
	Status    string             `json:"status"`
	Error     string             `json:"error,omitempty"`
	Accepted  int                `json:"accepted"`
	Rejected  int                `json:"rejected"`
	Samples   int                `json:"samples"`
}

func slug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		}
		return '-'
	}, s)
	return strings.Trim(s, "-")
}

// Save writes meta and t under a new run directory and returns its ID.
// Empty ID and Timestamp fields are filled in.
func (a *Archive) Save(meta RunMetadata, t *dynamo.Trajectory) (string, error) {
	if meta.ID == "" {
		meta.ID = fmt.Sprintf("%s_%s", slug(meta.System), uuid.New().String()[:8])
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now().UTC()
	}
	meta.Samples = t.Len()

	runDir := filepath.Join(a.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	if err := writeJSONFile(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := WriteCSVFile(filepath.Join(runDir, trajectoryFile), t); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// List returns the metadata of every readable run, oldest first.
func (a *Archive) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(a.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := a.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (a *Archive) Load(id string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(a.baseDir, id, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (a *Archive) LoadTrajectory(id string) (*dynamo.Trajectory, error) {
	return ReadCSVFile(filepath.Join(a.baseDir, id, trajectoryFile))
}
