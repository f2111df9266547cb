// Package registry holds the method registry and the typed definitions
// (feature, score, profile) that the engines consume.
//
// Methods are resolved once, when definitions are compiled: an unknown method
// or a misused adjustment fails before any engine touches data.
package registry

import (
	"fmt"
	"sort"

	"github.com/gpadpoll/fixed-income-fund-recsys/internal/contracts"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/table"
)

// MethodKind is the closed set of method variants
type MethodKind int

const (
	Aggregation MethodKind = iota + 1
	RowOperation
	Custom
	Adjustment
)

func (k MethodKind) String() string {
	switch k {
	case Aggregation:
		return "aggregation"
	case RowOperation:
		return "row_operation"
	case Custom:
		return "custom"
	case Adjustment:
		return "adjustment"
	default:
		return "unknown"
	}
}

// Reducer collapses the given rows of a column into one value
type Reducer func(col *table.Column, rows []int) table.Float

// RowFunc maps one raw cell to a per-row numeric value
type RowFunc func(cell string) table.Float

// RowOpFactory binds a row operation to its auxiliary arguments
type RowOpFactory func(aux []interface{}) (RowFunc, error)

// CustomFunc computes a whole per-group table for one feature.
// The result holds the key columns plus a column named output.
type CustomFunc func(t *table.Table, keys []string, output string) (*table.Table, error)

// CustomFactory binds a custom function to its positional arguments
type CustomFactory func(args []interface{}) (CustomFunc, error)

// AdjustFunc post-processes one computed value
type AdjustFunc func(v table.Float) table.Float

// Method is a registry entry. Exactly one of the function fields is set,
// matching Kind.
type Method struct {
	Name        string
	Kind        MethodKind
	Description string

	Reduce Reducer
	RowOp  RowOpFactory
	Custom CustomFactory
	Adjust AdjustFunc
}

func (m Method) validate() error {
	var ok bool
	switch m.Kind {
	case Aggregation:
		ok = m.Reduce != nil
	case RowOperation:
		ok = m.RowOp != nil
	case Custom:
		ok = m.Custom != nil
	case Adjustment:
		ok = m.Adjust != nil
	default:
		return fmt.Errorf("method %s: unknown kind %d", m.Name, m.Kind)
	}
	if !ok {
		return fmt.Errorf("method %s: missing %s function", m.Name, m.Kind)
	}
	return nil
}

// Registry maps method names to methods. It is built once per run and
// passed to the engines; there is no package-level registry.
type Registry struct {
	methods map[string]Method
}

// New returns an empty registry
func New() *Registry {
	return &Registry{methods: make(map[string]Method)}
}

// Register adds a method. Names must be unique.
func (r *Registry) Register(m Method) error {
	if m.Name == "" {
		return fmt.Errorf("method name is required")
	}
	if _, exists := r.methods[m.Name]; exists {
		return fmt.Errorf("method %s already registered", m.Name)
	}
	if err := m.validate(); err != nil {
		return err
	}
	r.methods[m.Name] = m
	return nil
}

// MustRegister is Register for static setup; it panics on error
func (r *Registry) MustRegister(m Method) {
	if err := r.Register(m); err != nil {
		panic(err)
	}
}

// Lookup returns the named method
func (r *Registry) Lookup(name string) (Method, bool) {
	m, ok := r.methods[name]
	return m, ok
}

// Names returns registered method names, sorted
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.methods))
	for n := range r.methods {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Feature is a FeatureDefinition resolved against a registry
type Feature struct {
	Name   string
	Method string
	Kind   MethodKind

	// aggregation and row_operation
	Column string
	Reduce Reducer
	Row    RowFunc

	// custom
	Custom CustomFunc

	Adjust []AdjustFunc
}

// Compile resolves one definition. Every failure is a ConfigurationError.
func (r *Registry) Compile(def FeatureDefinition) (Feature, error) {
	field := def.Name
	m, ok := r.methods[def.Method]
	if !ok {
		return Feature{}, contracts.Configf(field+".method", "method %q not found in registry", def.Method)
	}

	f := Feature{Name: def.Name, Method: m.Name, Kind: m.Kind}
	switch m.Kind {
	case Aggregation:
		col, err := argString(def.Args, 0)
		if err != nil {
			return Feature{}, contracts.Configf(field+".args", "%s: %v", m.Name, err)
		}
		f.Column = col
		f.Reduce = m.Reduce

	case RowOperation:
		col, err := argString(def.Args, 0)
		if err != nil {
			return Feature{}, contracts.Configf(field+".args", "%s: %v", m.Name, err)
		}
		fn, err := m.RowOp(def.Args[1:])
		if err != nil {
			return Feature{}, contracts.Configf(field+".args", "%s: %v", m.Name, err)
		}
		f.Column = col
		f.Row = fn

	case Custom:
		fn, err := m.Custom(def.Args)
		if err != nil {
			return Feature{}, contracts.Configf(field+".args", "%s: %v", m.Name, err)
		}
		f.Custom = fn

	case Adjustment:
		return Feature{}, contracts.Configf(field+".method", "%q is an adjustment and cannot compute a feature", m.Name)
	}

	for i, name := range def.Adjustments {
		adj, ok := r.methods[name]
		if !ok {
			return Feature{}, contracts.Configf(fmt.Sprintf("%s.adjustment[%d]", field, i), "adjustment %q not found in registry", name)
		}
		if adj.Kind != Adjustment {
			return Feature{}, contracts.Configf(fmt.Sprintf("%s.adjustment[%d]", field, i), "%q is a %s method, not an adjustment", name, adj.Kind)
		}
		f.Adjust = append(f.Adjust, adj.Adjust)
	}
	return f, nil
}

// CompileAll resolves definitions in order, stopping at the first error
func (r *Registry) CompileAll(defs []FeatureDefinition) ([]Feature, error) {
	out := make([]Feature, 0, len(defs))
	for _, d := range defs {
		f, err := r.Compile(d)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// ApplyAdjustments runs the adjustments over v in order
func (f Feature) ApplyAdjustments(v table.Float) table.Float {
	for _, adj := range f.Adjust {
		v = adj(v)
	}
	return v
}
