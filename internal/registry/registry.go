package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/attractor/internal/dynamo"
	"github.com/san-kum/attractor/internal/logger"
	"github.com/san-kum/attractor/internal/system"
)

// Registry resolves system names to definitions. It is safe for
// concurrent use.
type Registry struct {
	mu      sync.RWMutex
	store   Store
	customs map[string]system.Definition

	now   func() time.Time
	newID func() string
}

type Option func(*Registry)

// WithClock replaces time.Now for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithIDs replaces the uuid generator for new records.
func WithIDs(newID func() string) Option {
	return func(r *Registry) { r.newID = newID }
}

func New(store Store, opts ...Option) *Registry {
	r := &Registry{
		store:   store,
		customs: make(map[string]system.Definition),
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SaveOptions controls Save.
type SaveOptions struct {
	// Overwrite must be set to replace an existing custom system.
	Overwrite bool
}

// Load replaces the custom set with the store's contents. On a store error
// the custom set is left empty and the error is returned; built-ins stay
// available either way. Records that do not validate are skipped, as are
// later records repeating a name already loaded.
func (r *Registry) Load(ctx context.Context) error {
	log := logger.For("registry")

	defs, err := r.store.Load(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.customs = make(map[string]system.Definition, len(defs))

	if err != nil {
		log.Warn("custom library unavailable", "err", err)
		return asStoreError("read", err)
	}

	skipped := 0
	for _, def := range defs {
		if system.IsBuiltinName(def.Name) {
			log.Warn("skipping custom system shadowing a built-in", "system", def.Name)
			skipped++
			continue
		}
		if err := def.Validate(); err != nil {
			log.Warn("skipping invalid custom system", "system", def.Name, "err", err)
			skipped++
			continue
		}
		if _, dup := r.customs[def.Name]; dup {
			log.Warn("skipping duplicate custom system", "system", def.Name)
			skipped++
			continue
		}
		def.Origin = system.Custom
		r.customs[def.Name] = def
	}
	log.Debug("custom library loaded", "count", len(r.customs), "skipped", skipped)
	return nil
}

// Lookup finds a built-in or custom system by exact name.
func (r *Registry) Lookup(name string) (system.Definition, error) {
	if def, ok := system.LookupBuiltin(name); ok {
		return def, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if def, ok := r.customs[name]; ok {
		return def.Clone(), nil
	}
	return system.Definition{}, &NotFoundError{Name: name}
}

// Builtins lists the built-in catalog, Lorenz first.
func (r *Registry) Builtins() []system.Definition {
	return system.Builtins()
}

// Customs lists the user's systems, newest first.
func (r *Registry) Customs() []system.Definition {
	r.mu.RLock()
	defs := make([]system.Definition, 0, len(r.customs))
	for _, def := range r.customs {
		defs = append(defs, def.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(defs, func(i, j int) bool {
		if !defs[i].Created.Equal(defs[j].Created) {
			return defs[i].Created.After(defs[j].Created)
		}
		return defs[i].Name < defs[j].Name
	})
	return defs
}

// All returns the built-ins followed by the customs.
func (r *Registry) All() []system.Definition {
	return append(r.Builtins(), r.Customs()...)
}

// Save validates def and stores it as a custom system. Replacing an
// existing entry requires opts.Overwrite and keeps its ID and creation
// time. The stored definition is returned.
func (r *Registry) Save(ctx context.Context, def system.Definition, opts SaveOptions) (system.Definition, error) {
	def = def.Clone()
	def.Origin = system.Custom
	if err := def.Validate(); err != nil {
		return system.Definition{}, err
	}
	if system.IsBuiltinName(def.Name) {
		return system.Definition{}, fmt.Errorf("%q is a built-in system: %w", def.Name, dynamo.ErrReadOnly)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.customs[def.Name]; ok {
		if !opts.Overwrite {
			return system.Definition{}, fmt.Errorf("%q: %w", def.Name, dynamo.ErrExists)
		}
		def.ID = prev.ID
		def.Created = prev.Created
	} else {
		def.ID = r.newID()
		def.Created = r.stamp()
	}

	err := r.commit(ctx, func(m map[string]system.Definition) {
		m[def.Name] = def
	})
	if err != nil {
		return system.Definition{}, err
	}
	logger.For("registry").Info("saved custom system", "system", def.Name)
	return def.Clone(), nil
}

// Delete removes a custom system.
func (r *Registry) Delete(ctx context.Context, name string) error {
	if system.IsBuiltinName(name) {
		return fmt.Errorf("%q is a built-in system: %w", name, dynamo.ErrReadOnly)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.customs[name]; !ok {
		return &NotFoundError{Name: name}
	}
	return r.commit(ctx, func(m map[string]system.Definition) {
		delete(m, name)
	})
}

// Duplicate copies any system into a new custom one named "<name> Copy",
// "<name> Copy 2" and so on.
func (r *Registry) Duplicate(ctx context.Context, name string) (system.Definition, error) {
	src, err := r.Lookup(name)
	if err != nil {
		return system.Definition{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dup := src.Clone()
	dup.Name = r.copyName(src.Name)
	dup.Origin = system.Custom
	dup.ID = r.newID()
	dup.Created = r.stamp()

	err = r.commit(ctx, func(m map[string]system.Definition) {
		m[dup.Name] = dup
	})
	if err != nil {
		return system.Definition{}, err
	}
	return dup.Clone(), nil
}

// SetNote replaces the free-text note of a custom system.
func (r *Registry) SetNote(ctx context.Context, name, note string) error {
	if system.IsBuiltinName(name) {
		return fmt.Errorf("%q is a built-in system: %w", name, dynamo.ErrReadOnly)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	def, ok := r.customs[name]
	if !ok {
		return &NotFoundError{Name: name}
	}
	def.Note = strings.TrimSpace(note)
	return r.commit(ctx, func(m map[string]system.Definition) {
		m[name] = def
	})
}

func (r *Registry) copyName(base string) string {
	taken := func(n string) bool {
		_, ok := r.customs[n]
		return ok || system.IsBuiltinName(n)
	}
	name := base + " Copy"
	for i := 2; taken(name); i++ {
		name = fmt.Sprintf("%s Copy %d", base, i)
	}
	return name
}

func (r *Registry) stamp() time.Time {
	return r.now().UTC().Truncate(time.Microsecond)
}

// commit applies mutate to a copy of the custom set and persists it. The
// copy replaces the live set only after the store accepted it. Callers
// hold r.mu.
func (r *Registry) commit(ctx context.Context, mutate func(map[string]system.Definition)) error {
	next := make(map[string]system.Definition, len(r.customs)+1)
	for k, v := range r.customs {
		next[k] = v
	}
	mutate(next)

	defs := make([]system.Definition, 0, len(next))
	for _, def := range next {
		defs = append(defs, def)
	}
	if err := r.store.Save(ctx, defs); err != nil {
		logger.For("registry").Error("custom library not saved", "err", err)
		return asStoreError("write", err)
	}
	r.customs = next
	return nil
}

func asStoreError(op string, err error) error {
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
