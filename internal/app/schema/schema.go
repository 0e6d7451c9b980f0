// Package schema is the registry of per-department entry schemas.
//
// Each department maps to one Descriptor: the collection its entries live in,
// the fields a submission must carry, the optional fields the engine knows how
// to type-check, and the fields a text search looks at. The registry is pure
// data, built once at startup; adding a department means adding a row to
// defaultDescriptors, not writing a new code path.
package schema

import (
	"errors"

	"github.com/dalemusser/memoria/internal/domain/models"
)

// Kind is the expected value type of a field.
type Kind int

const (
	String Kind = iota
	Int
	Date
	StringList
	URL
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Int:
		return "int"
	case Date:
		return "date"
	case StringList:
		return "string list"
	case URL:
		return "url"
	}
	return "unknown"
}

// Field names one schema field and its expected kind.
type Field struct {
	Name string
	Kind Kind
}

// Descriptor is the schema of one department.
type Descriptor struct {
	Department   models.Department
	Store        string
	Required     []Field
	Optional     []Field
	SearchFields []string
}

// ErrUnknownDepartment is returned for departments that are not registered.
var ErrUnknownDepartment = errors.New("department not registered")

// Registry resolves departments to descriptors.
type Registry struct {
	byDept map[models.Department]Descriptor
	order  []models.Department
}

// NewRegistry builds a registry from descriptors. Later duplicates win.
func NewRegistry(descs ...Descriptor) *Registry {
	r := &Registry{byDept: make(map[models.Department]Descriptor, len(descs))}
	for _, d := range descs {
		if _, seen := r.byDept[d.Department]; !seen {
			r.order = append(r.order, d.Department)
		}
		r.byDept[d.Department] = d
	}
	return r
}

// Default returns the registry of every built-in department.
func Default() *Registry {
	return NewRegistry(defaultDescriptors()...)
}

// Lookup returns the descriptor for dept.
func (r *Registry) Lookup(dept models.Department) (Descriptor, error) {
	d, ok := r.byDept[dept]
	if !ok {
		return Descriptor{}, ErrUnknownDepartment
	}
	return d, nil
}

// RequiredFields returns the names of the fields dept requires.
func (r *Registry) RequiredFields(dept models.Department) ([]string, error) {
	d, err := r.Lookup(dept)
	if err != nil {
		return nil, err
	}
	return names(d.Required), nil
}

// OptionalFields returns the names of the optional fields dept knows about.
func (r *Registry) OptionalFields(dept models.Department) ([]string, error) {
	d, err := r.Lookup(dept)
	if err != nil {
		return nil, err
	}
	return names(d.Optional), nil
}

// StoreName returns the collection holding dept's entries.
func (r *Registry) StoreName(dept models.Department) (string, error) {
	d, err := r.Lookup(dept)
	if err != nil {
		return "", err
	}
	return d.Store, nil
}

// Departments returns the registered departments in registration order.
func (r *Registry) Departments() []models.Department {
	out := make([]models.Department, len(r.order))
	copy(out, r.order)
	return out
}

// Descriptors returns every registered descriptor in registration order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, d := range r.order {
		out = append(out, r.byDept[d])
	}
	return out
}

// FieldKind reports the declared kind of a known field.
func (d Descriptor) FieldKind(name string) (Kind, bool) {
	for _, f := range d.Required {
		if f.Name == name {
			return f.Kind, true
		}
	}
	for _, f := range d.Optional {
		if f.Name == name {
			return f.Kind, true
		}
	}
	return 0, false
}

// Known returns every declared field, required first.
func (d Descriptor) Known() []Field {
	out := make([]Field, 0, len(d.Required)+len(d.Optional))
	out = append(out, d.Required...)
	return append(out, d.Optional...)
}

func names(fs []Field) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Name
	}
	return out
}
