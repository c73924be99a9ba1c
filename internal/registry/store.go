package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"

	"github.com/san-kum/attractor/internal/dynamo"
	"github.com/san-kum/attractor/internal/expr"
	"github.com/san-kum/attractor/internal/system"
)

// SchemaVersion is written into every library document.
const SchemaVersion = 1

var schemaConstraint = mustConstraint("^1")

func mustConstraint(c string) *semver.Constraints {
	sc, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return sc
}

// Store persists the custom systems as a whole.
type Store interface {
	Load(ctx context.Context) ([]system.Definition, error)
	Save(ctx context.Context, defs []system.Definition) error
}

// FileStore keeps the library in one JSON file. Every save rewrites the
// whole document.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

type libraryDoc struct {
	Schema json.RawMessage   `json:"schema,omitempty"`
	Items  map[string]record `json:"items"`
}

type record struct {
	ID       string          `json:"id,omitempty"`
	Name     string          `json:"name"`
	RHS      rhs             `json:"rhs"`
	Params   orderedParams   `json:"params"`
	Initial  *[3]float64     `json:"initial,omitempty"`
	Defaults *recordDefaults `json:"defaults,omitempty"`
	Created  float64         `json:"creation_timestamp"`
	Details  string          `json:"details"`
}

type rhs struct {
	DX string `json:"dx"`
	DY string `json:"dy"`
	DZ string `json:"dz"`
}

type recordDefaults struct {
	Procedure string   `json:"procedure,omitempty"`
	Dt        *float64 `json:"dt,omitempty"`
	Tolerance *float64 `json:"tolerance,omitempty"`
	MinDt     *float64 `json:"min_dt,omitempty"`
	MaxDt     *float64 `json:"max_dt,omitempty"`
	Steps     *int     `json:"steps,omitempty"`
	BurnIn    *int     `json:"burn_in,omitempty"`
	Scale     *float64 `json:"scale,omitempty"`
}

// orderedParams keeps the key order of the "params" object.
type orderedParams expr.Params

func (p orderedParams) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, prm := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(prm.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(prm.Value)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", prm.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (p *orderedParams) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = orderedParams{}
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("params: expected object, got %v", tok)
	}

	out := orderedParams{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)
		var v float64
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("param %s: %w", name, err)
		}
		out = append(out, expr.Param{Name: name, Value: v})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*p = out
	return nil
}

func (s *FileStore) Load(ctx context.Context) ([]system.Definition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &StoreError{Op: "read", Path: s.Path, Err: err}
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var doc libraryDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &StoreError{Op: "decode", Path: s.Path, Err: err}
	}
	if err := checkSchema(doc.Schema); err != nil {
		return nil, &StoreError{Op: "decode", Path: s.Path, Err: err}
	}

	// key order, so a name shared by two items resolves the same way every load
	keys := make([]string, 0, len(doc.Items))
	for key := range doc.Items {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	defs := make([]system.Definition, 0, len(keys))
	for _, key := range keys {
		defs = append(defs, doc.Items[key].definition(key))
	}
	return defs, nil
}

func checkSchema(raw json.RawMessage) error {
	v := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if v == "" || v == "null" {
		v = "1"
	}
	ver, err := semver.NewVersion(v)
	if err != nil {
		return fmt.Errorf("schema %q: %w", v, err)
	}
	if !schemaConstraint.Check(ver) {
		return fmt.Errorf("unsupported schema %s", ver)
	}
	return nil
}

func (r record) definition(key string) system.Definition {
	name := r.Name
	if name == "" {
		name = key
	}
	id := r.ID
	if id == "" {
		id = uuid.New().String()
	}

	def := system.Definition{
		ID:        id,
		Name:      name,
		Equations: [3]string{r.RHS.DX, r.RHS.DY, r.RHS.DZ},
		Params:    expr.Params(r.Params).Clone(),
		Initial:   dynamo.State{0.01, 0.01, 0.01},
		Origin:    system.Custom,
		Note:      r.Details,
		Defaults:  r.Defaults.runDefaults(),
		Created:   fromUnixSeconds(r.Created),
	}
	if def.Params == nil {
		def.Params = expr.Params{}
	}
	if r.Initial != nil {
		def.Initial = dynamo.State(*r.Initial)
	}
	return def
}

func (d *recordDefaults) runDefaults() system.RunDefaults {
	out := system.DefaultRunDefaults()
	if d == nil {
		return out
	}
	if m, err := dynamo.ParseMethod(d.Procedure); err == nil {
		out.Method = m
	}
	if d.Dt != nil {
		out.Dt = *d.Dt
	}
	if d.Tolerance != nil {
		out.Tolerance = *d.Tolerance
	}
	if d.MinDt != nil {
		out.MinStep = *d.MinDt
	}
	if d.MaxDt != nil {
		out.MaxStep = *d.MaxDt
	}
	if d.Steps != nil {
		out.Steps = *d.Steps
	}
	if d.BurnIn != nil {
		out.BurnIn = *d.BurnIn
	}
	if d.Scale != nil {
		out.Scale = *d.Scale
	}
	return out
}

func newRecord(def system.Definition) record {
	d := def.Defaults
	initial := [3]float64(def.Initial)
	return record{
		ID:      def.ID,
		Name:    def.Name,
		RHS:     rhs{DX: def.Equations[0], DY: def.Equations[1], DZ: def.Equations[2]},
		Params:  orderedParams(def.Params),
		Initial: &initial,
		Defaults: &recordDefaults{
			Procedure: strings.ToUpper(d.Method.String()),
			Dt:        &d.Dt,
			Tolerance: &d.Tolerance,
			MinDt:     &d.MinStep,
			MaxDt:     &d.MaxStep,
			Steps:     &d.Steps,
			BurnIn:    &d.BurnIn,
			Scale:     &d.Scale,
		},
		Created: toUnixSeconds(def.Created),
		Details: def.Note,
	}
}

func toUnixSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.UnixMicro()) / 1e6
}

func fromUnixSeconds(s float64) time.Time {
	if s <= 0 || math.IsNaN(s) || math.IsInf(s, 0) {
		return time.Time{}
	}
	return time.UnixMicro(int64(math.Round(s * 1e6))).UTC()
}

// Save writes the library to a temporary file next to Path and renames it
// into place.
func (s *FileStore) Save(ctx context.Context, defs []system.Definition) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	doc := libraryDoc{
		Schema: json.RawMessage(fmt.Sprint(SchemaVersion)),
		Items:  make(map[string]record, len(defs)),
	}
	for _, def := range defs {
		doc.Items[def.Name] = newRecord(def)
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &StoreError{Op: "write", Path: s.Path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".library-*.json")
	if err != nil {
		return &StoreError{Op: "write", Path: s.Path, Err: err}
	}
	tmpName := tmp.Name()
	if err := writeDoc(tmp, doc); err != nil {
		os.Remove(tmpName)
		return &StoreError{Op: "write", Path: s.Path, Err: err}
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return &StoreError{Op: "write", Path: s.Path, Err: err}
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		os.Remove(tmpName)
		return &StoreError{Op: "write", Path: s.Path, Err: err}
	}
	return nil
}

func writeDoc(f *os.File, doc libraryDoc) error {
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
