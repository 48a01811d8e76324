package convert

import (
	"strings"

	"github.com/nicored/csv-template/object"
)

// Ignore is the mutator directive that never writes anything
const Ignore = "ignore"

// Mutator writes converted values into a target. It either wraps a single
// converter or is the ignore directive.
type Mutator struct {
	ignore    bool
	converter Converter
}

// NewMutator builds a Mutator from nil (values pass through untouched), the
// "ignore" directive, a Converter, or anything New accepts.
func NewMutator(arg interface{}) (*Mutator, error) {
	switch a := arg.(type) {
	case nil:
		return &Mutator{converter: NullConverter{}}, nil
	case *Mutator:
		return a, nil
	case string:
		if strings.EqualFold(strings.TrimSpace(a), Ignore) {
			return &Mutator{ignore: true, converter: NullConverter{}}, nil
		}
	case *TypeConverter:
		return &Mutator{converter: a}, nil
	case NullConverter:
		return &Mutator{converter: a}, nil
	}

	c, err := New(arg)
	if err != nil {
		return nil, err
	}

	return &Mutator{converter: c}, nil
}

// Ignored reports whether the mutator is the ignore directive
func (m *Mutator) Ignored() bool {
	return m.ignore
}

// Converter returns the wrapped converter
func (m *Mutator) Converter() Converter {
	return m.converter
}

// Set converts value and stores it at path inside target, creating missing
// intermediate containers. It does nothing when the mutator is ignored.
func (m *Mutator) Set(target interface{}, path []string, value interface{}) error {
	if m.ignore {
		return nil
	}

	converted, err := m.converter.Convert(value)
	if err != nil {
		return err
	}

	return object.SetPath(target, path, converted)
}
