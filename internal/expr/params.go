package expr

// Param is a named constant of a system.
type Param struct {
	Name  string
	Value float64
}

// Params is an ordered parameter list.
type Params []Param

// DefaultParamValue is assigned to newly detected parameters.
const DefaultParamValue = 1.0

func (p Params) Names() []string {
	names := make([]string, len(p))
	for i, pr := range p {
		names[i] = pr.Name
	}
	return names
}

func (p Params) Values() []float64 {
	values := make([]float64, len(p))
	for i, pr := range p {
		values[i] = pr.Value
	}
	return values
}

func (p Params) Get(name string) (float64, bool) {
	for _, pr := range p {
		if pr.Name == name {
			return pr.Value, true
		}
	}
	return 0, false
}

// With returns a copy with name set to value. Unknown names are appended.
func (p Params) With(name string, value float64) Params {
	out := p.Clone()
	for i := range out {
		if out[i].Name == name {
			out[i].Value = value
			return out
		}
	}
	return append(out, Param{Name: name, Value: value})
}

func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	copy(out, p)
	return out
}

func (p Params) Map() map[string]float64 {
	m := make(map[string]float64, len(p))
	for _, pr := range p {
		m[pr.Name] = pr.Value
	}
	return m
}

// FreeIdentifiers returns the names that are neither coordinates nor
// functions, in first-appearance order across nodes.
func FreeIdentifiers(nodes ...Node) []string {
	seen := make(map[string]bool)
	var names []string
	for _, n := range nodes {
		Walk(n, func(n Node) {
			id, ok := n.(*Ident)
			if !ok || seen[id.Name] {
				return
			}
			seen[id.Name] = true
			names = append(names, id.Name)
		})
	}
	return names
}

// DetectParams finds the parameters of a system in first-appearance order
// (dx, then dy, then dz). Values in existing are kept for names that still
// appear; new names get DefaultParamValue and vanished names are dropped.
func DetectParams(equations [3]string, existing Params) (Params, error) {
	nodes := make([]Node, 0, 3)
	for i, src := range equations {
		n, err := Parse(src)
		if err != nil {
			if pe, ok := err.(*ParseError); ok {
				return nil, pe.withAxis(Axes[i])
			}
			return nil, err
		}
		nodes = append(nodes, n)
	}

	names := FreeIdentifiers(nodes...)
	out := make(Params, 0, len(names))
	for _, name := range names {
		v, ok := existing.Get(name)
		if !ok {
			v = DefaultParamValue
		}
		out = append(out, Param{Name: name, Value: v})
	}
	return out, nil
}
