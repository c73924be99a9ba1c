package registry_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/attractor/internal/dynamo"
	"github.com/san-kum/attractor/internal/expr"
	"github.com/san-kum/attractor/internal/registry"
	"github.com/san-kum/attractor/internal/system"
)

type failingStore struct {
	registry.Store
	fail bool
}

func (s *failingStore) Save(ctx context.Context, defs []system.Definition) error {
	if s.fail {
		return errors.New("disk full")
	}
	return s.Store.Save(ctx, defs)
}

func sequenceIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func tickingClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func spiral() system.Definition {
	def := system.NewDraft("Spiral")
	def.Equations = [3]string{"a*y - x", "-x - b*y", "c"}
	def.Params = expr.Params{{Name: "a", Value: 2}, {Name: "b", Value: 0.5}, {Name: "c", Value: 0}}
	def.Initial = dynamo.State{1, 2, 3}
	def.Note = "slow inward spiral"
	return def
}

var _ = Describe("Registry", func() {
	var (
		ctx   context.Context
		path  string
		store *registry.FileStore
		reg   *registry.Registry
		start time.Time
	)

	newRegistry := func(s registry.Store) *registry.Registry {
		return registry.New(s,
			registry.WithIDs(sequenceIDs()),
			registry.WithClock(tickingClock(start)))
	}

	BeforeEach(func() {
		ctx = context.Background()
		path = filepath.Join(GinkgoT().TempDir(), "AttractorBuilder", "custom_attractors.json")
		store = registry.NewFileStore(path)
		start = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		reg = newRegistry(store)
		Expect(reg.Load(ctx)).To(Succeed())
	})

	Describe("Load", func() {
		It("starts empty when the library file does not exist", func() {
			Expect(reg.Customs()).To(BeEmpty())
			Expect(reg.Builtins()).NotTo(BeEmpty())
		})

		It("falls back to an empty custom set on malformed JSON", func() {
			Expect(os.MkdirAll(filepath.Dir(path), 0755)).To(Succeed())
			Expect(os.WriteFile(path, []byte(`{"schema":1,"items":{`), 0644)).To(Succeed())

			err := reg.Load(ctx)
			var se *registry.StoreError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(reg.Customs()).To(BeEmpty())

			_, err = reg.Lookup("Lorenz")
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects an unsupported schema version", func() {
			Expect(os.MkdirAll(filepath.Dir(path), 0755)).To(Succeed())
			Expect(os.WriteFile(path, []byte(`{"schema":2,"items":{}}`), 0644)).To(Succeed())

			err := reg.Load(ctx)
			Expect(err).To(MatchError(ContainSubstring("unsupported schema")))
		})

		It("reads the add-on document format", func() {
			doc := `{
  "schema": 1,
  "items": {
    "Mine": {
      "name": "Mine",
      "rhs": {"dx": "s*(y-x)", "dy": "x*(r-z)-y", "dz": "x*y-q*z"},
      "params": {"s": 10, "r": 28, "q": 2.5},
      "initial": [0.1, 0, 0],
      "defaults": {"procedure": "DP5", "dt": 0.02, "tolerance": 1e-5,
                   "min_dt": 1e-6, "max_dt": 0.1, "steps": 5000, "burn_in": 0, "scale": 2},
      "creation_timestamp": 1700000000.25,
      "details": "three params"
    },
    "Broken": {
      "name": "Broken",
      "rhs": {"dx": "x^2", "dy": "0", "dz": "0"},
      "params": {}
    }
  }
}`
			Expect(os.MkdirAll(filepath.Dir(path), 0755)).To(Succeed())
			Expect(os.WriteFile(path, []byte(doc), 0644)).To(Succeed())
			Expect(reg.Load(ctx)).To(Succeed())

			Expect(reg.Customs()).To(HaveLen(1))
			def, err := reg.Lookup("Mine")
			Expect(err).NotTo(HaveOccurred())
			Expect(def.Params.Names()).To(Equal([]string{"s", "r", "q"}))
			Expect(def.Defaults.Method).To(Equal(dynamo.DP5))
			Expect(def.Defaults.BurnIn).To(Equal(0))
			Expect(def.Defaults.Scale).To(Equal(2.0))
			Expect(def.Note).To(Equal("three params"))
			Expect(def.ID).NotTo(BeEmpty())
			Expect(def.Created).To(Equal(time.UnixMicro(1700000000250000).UTC()))

			_, err = reg.Lookup("Broken")
			Expect(errors.Is(err, dynamo.ErrNotFound)).To(BeTrue())
		})

		It("keeps the first of two items sharing a name", func() {
			doc := `{
  "schema": 1,
  "items": {
    "b-key": {"name": "Twin", "rhs": {"dx": "-y", "dy": "x", "dz": "0"}, "params": {}},
    "a-key": {"name": "Twin", "rhs": {"dx": "-x", "dy": "-y", "dz": "-z"}, "params": {}}
  }
}`
			Expect(os.MkdirAll(filepath.Dir(path), 0755)).To(Succeed())
			Expect(os.WriteFile(path, []byte(doc), 0644)).To(Succeed())

			for range 3 {
				Expect(reg.Load(ctx)).To(Succeed())
				Expect(reg.Customs()).To(HaveLen(1))
				def, err := reg.Lookup("Twin")
				Expect(err).NotTo(HaveOccurred())
				Expect(def.Equations[0]).To(Equal("-x"))
			}
		})
	})

	Describe("Save", func() {
		It("round-trips a custom system through the file", func() {
			saved, err := reg.Save(ctx, spiral(), registry.SaveOptions{})
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.ID).To(Equal("id-1"))
			Expect(saved.Origin).To(Equal(system.Custom))

			fresh := registry.New(store)
			Expect(fresh.Load(ctx)).To(Succeed())
			got, err := fresh.Lookup("Spiral")
			Expect(err).NotTo(HaveOccurred())

			Expect(got.ID).To(Equal(saved.ID))
			Expect(got.Equations).To(Equal(saved.Equations))
			Expect(got.Params).To(Equal(saved.Params))
			Expect(got.Initial).To(Equal(saved.Initial))
			Expect(got.Defaults).To(Equal(saved.Defaults))
			Expect(got.Note).To(Equal(saved.Note))
			Expect(got.Created.Equal(saved.Created)).To(BeTrue())
		})

		It("preserves parameter order that is not alphabetical", func() {
			def := spiral()
			def.Params = expr.Params{{Name: "c", Value: 0}, {Name: "a", Value: 2}, {Name: "b", Value: 0.5}}
			_, err := reg.Save(ctx, def, registry.SaveOptions{})
			Expect(err).NotTo(HaveOccurred())

			fresh := registry.New(store)
			Expect(fresh.Load(ctx)).To(Succeed())
			got, err := fresh.Lookup("Spiral")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Params.Names()).To(Equal([]string{"c", "a", "b"}))
		})

		It("writes the procedure in upper case", func() {
			def := spiral()
			def.Defaults.Method = dynamo.RKF45
			_, err := reg.Save(ctx, def, registry.SaveOptions{})
			Expect(err).NotTo(HaveOccurred())

			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring(`"procedure": "RKF45"`))
			Expect(string(data)).To(ContainSubstring(`"schema": 1`))
		})

		It("requires confirmation to overwrite and keeps identity", func() {
			first, err := reg.Save(ctx, spiral(), registry.SaveOptions{})
			Expect(err).NotTo(HaveOccurred())

			changed := spiral()
			changed.Equations[2] = "-z"
			_, err = reg.Save(ctx, changed, registry.SaveOptions{})
			Expect(errors.Is(err, dynamo.ErrExists)).To(BeTrue())

			got, _ := reg.Lookup("Spiral")
			Expect(got.Equations[2]).To(Equal("c"))

			second, err := reg.Save(ctx, changed, registry.SaveOptions{Overwrite: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(second.ID).To(Equal(first.ID))
			Expect(second.Created).To(Equal(first.Created))
			Expect(second.Equations[2]).To(Equal("-z"))
		})

		It("refuses built-in names", func() {
			def := spiral()
			def.Name = "Lorenz"
			_, err := reg.Save(ctx, def, registry.SaveOptions{Overwrite: true})
			Expect(errors.Is(err, dynamo.ErrReadOnly)).To(BeTrue())
		})

		It("refuses invalid definitions", func() {
			def := spiral()
			def.Equations[0] = "a*y - k"
			_, err := reg.Save(ctx, def, registry.SaveOptions{})
			var pe *expr.ParseError
			Expect(errors.As(err, &pe)).To(BeTrue())
			Expect(pe.Axis).To(Equal("dx"))

			def = spiral()
			def.Name = "  "
			_, err = reg.Save(ctx, def, registry.SaveOptions{})
			Expect(errors.Is(err, dynamo.ErrInvalidConfig)).To(BeTrue())
			Expect(reg.Customs()).To(BeEmpty())
		})

		It("rolls back when the store fails", func() {
			fs := &failingStore{Store: store}
			r := newRegistry(fs)
			Expect(r.Load(ctx)).To(Succeed())

			_, err := r.Save(ctx, spiral(), registry.SaveOptions{})
			Expect(err).NotTo(HaveOccurred())

			fs.fail = true
			other := spiral()
			other.Name = "Other"
			_, err = r.Save(ctx, other, registry.SaveOptions{})
			var se *registry.StoreError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(r.Customs()).To(HaveLen(1))

			Expect(r.Delete(ctx, "Spiral")).NotTo(Succeed())
			_, err = r.Lookup("Spiral")
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("listing", func() {
		It("orders customs newest first", func() {
			for _, name := range []string{"One", "Two", "Three"} {
				def := spiral()
				def.Name = name
				_, err := reg.Save(ctx, def, registry.SaveOptions{})
				Expect(err).NotTo(HaveOccurred())
			}

			var names []string
			for _, d := range reg.Customs() {
				names = append(names, d.Name)
			}
			Expect(names).To(Equal([]string{"Three", "Two", "One"}))
		})

		It("puts Lorenz first among built-ins", func() {
			Expect(reg.Builtins()[0].Name).To(Equal("Lorenz"))
			Expect(reg.All()).To(HaveLen(len(reg.Builtins())))
		})
	})

	Describe("Delete", func() {
		It("removes a custom system", func() {
			_, err := reg.Save(ctx, spiral(), registry.SaveOptions{})
			Expect(err).NotTo(HaveOccurred())
			Expect(reg.Delete(ctx, "Spiral")).To(Succeed())

			_, err = reg.Lookup("Spiral")
			var nf *registry.NotFoundError
			Expect(errors.As(err, &nf)).To(BeTrue())
			Expect(nf.Name).To(Equal("Spiral"))
		})

		It("protects built-ins and reports missing names", func() {
			Expect(errors.Is(reg.Delete(ctx, "Lorenz"), dynamo.ErrReadOnly)).To(BeTrue())
			Expect(errors.Is(reg.Delete(ctx, "Nope"), dynamo.ErrNotFound)).To(BeTrue())
		})
	})

	Describe("Duplicate", func() {
		It("numbers successive copies", func() {
			a, err := reg.Duplicate(ctx, "Lorenz")
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Name).To(Equal("Lorenz Copy"))
			Expect(a.Origin).To(Equal(system.Custom))
			Expect(a.ID).NotTo(HavePrefix("builtin:"))

			b, err := reg.Duplicate(ctx, "Lorenz")
			Expect(err).NotTo(HaveOccurred())
			Expect(b.Name).To(Equal("Lorenz Copy 2"))

			lorenz, _ := reg.Lookup("Lorenz")
			Expect(b.Equations).To(Equal(lorenz.Equations))
			Expect(b.Params).To(Equal(lorenz.Params))
		})
	})

	Describe("SetNote", func() {
		It("updates customs only", func() {
			_, err := reg.Save(ctx, spiral(), registry.SaveOptions{})
			Expect(err).NotTo(HaveOccurred())
			Expect(reg.SetNote(ctx, "Spiral", "  see *Strogatz*  ")).To(Succeed())

			got, _ := reg.Lookup("Spiral")
			Expect(got.Note).To(Equal("see *Strogatz*"))

			Expect(errors.Is(reg.SetNote(ctx, "Lorenz", "x"), dynamo.ErrReadOnly)).To(BeTrue())
		})
	})
})
