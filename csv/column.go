package csv

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/nicored/csv-template/convert"
	"github.com/nicored/csv-template/object"
)

// procHeader names function segments when a header is derived from a path
const procHeader = "proc"

// StringOrSlice accepts either a single string or a list of strings
type StringOrSlice []string

// UnmarshalYAML implements yaml.Unmarshaler
func (s *StringOrSlice) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var str string
	if err := unmarshal(&str); err == nil {
		if str == "" {
			*s = StringOrSlice{}
		} else {
			*s = StringOrSlice{str}
		}

		return nil
	}

	var arr []string
	if err := unmarshal(&arr); err != nil {
		return errors.Wrap(err, "expected string or array")
	}

	*s = arr
	return nil
}

// ColumnOptions is the configuration of a column
type ColumnOptions struct {
	// Property is the name of the field read and written, the header by default
	Property string `mapstructure:"property" yaml:"property"`

	// Through lists the containers to walk through before reaching Property
	Through StringOrSlice `mapstructure:"through" yaml:"through"`

	// ToCSV converts the property value to the cell value.
	// Accepts anything convert.NewMutator does.
	ToCSV interface{} `mapstructure:"to_csv" yaml:"to_csv"`

	// ToObject converts the cell value to the property value
	ToObject interface{} `mapstructure:"to_object" yaml:"to_object"`
}

// segment is a step of the extraction path: a key lookup or a function
// applied to the current value
type segment struct {
	key string
	fn  convert.Func
}

// Column maps one CSV column to one property of an object. Columns are
// immutable.
type Column struct {
	header   string
	property string
	through  []string
	path     []segment
	toCSV    *convert.Mutator
	toObject *convert.Mutator
}

// NewColumn creates a column. The header is required.
func NewColumn(header string, opts ColumnOptions) (*Column, error) {
	if header == "" {
		return nil, errors.Wrap(ErrConfiguration, "header is required")
	}

	property := opts.Property
	if property == "" {
		property = header
	}

	c := &Column{
		header:   header,
		property: property,
		through:  append([]string{}, opts.Through...),
	}

	for _, key := range c.Path() {
		c.path = append(c.path, segment{key: key})
	}

	var err error

	if c.toCSV, err = convert.NewMutator(opts.ToCSV); err != nil {
		return nil, errors.Wrapf(err, "error in to_csv of column '%s'", header)
	}

	if c.toObject, err = convert.NewMutator(opts.ToObject); err != nil {
		return nil, errors.Wrapf(err, "error in to_object of column '%s'", header)
	}

	return c, nil
}

// NewColumnFromMap creates a column from options given as a mapping, as
// found in configuration files. opts may also be nil or ColumnOptions.
func NewColumnFromMap(header string, opts interface{}) (*Column, error) {
	switch o := opts.(type) {
	case nil:
		return NewColumn(header, ColumnOptions{})
	case ColumnOptions:
		return NewColumn(header, o)
	case *ColumnOptions:
		return NewColumn(header, *o)
	}

	var co ColumnOptions
	if err := decode(opts, &co); err != nil {
		return nil, errors.Wrapf(err, "invalid options for column '%s'", header)
	}

	return NewColumn(header, co)
}

// newFieldColumn creates a column from a field definition:
//
//	{field: name}
//	{field: [license, id], header: License #}
//
// The path may hold convert.Func values applied to the value reached so far.
// When no header is given it is derived from the path.
func newFieldColumn(def map[string]interface{}) (*Column, error) {
	var keys []string
	var path []segment
	var names []string

	for _, step := range toItems(def["field"]) {
		if fn, ok := toFunc(step); ok {
			path = append(path, segment{fn: fn})
			names = append(names, procHeader)
			continue
		}

		key := fmt.Sprint(step)
		path = append(path, segment{key: key})
		keys = append(keys, key)
		names = append(names, key)
	}

	if len(path) == 0 {
		return nil, errors.Wrap(ErrConfiguration, "field is required")
	}

	header, _ := def["header"].(string)
	if header == "" {
		header = strings.Join(names, "_")
	}

	opts := ColumnOptions{ToCSV: def["to_csv"], ToObject: def["to_object"]}

	if len(keys) > 0 {
		opts.Property = keys[len(keys)-1]
		opts.Through = keys[:len(keys)-1]
	}

	// functions cannot be walked backwards
	if len(keys) != len(path) && opts.ToObject == nil {
		opts.ToObject = convert.Ignore
	}

	c, err := NewColumn(header, opts)
	if err != nil {
		return nil, err
	}

	c.path = path
	return c, nil
}

// Header returns the column header
func (c *Column) Header() string {
	return c.header
}

// Property returns the name of the property
func (c *Column) Property() string {
	return c.property
}

// Through returns the containers walked through before the property
func (c *Column) Through() []string {
	return append([]string{}, c.through...)
}

// Path returns Through followed by Property
func (c *Column) Path() []string {
	return append(c.Through(), c.property)
}

// ToCSV returns the mutator applied when generating
func (c *Column) ToCSV() *convert.Mutator {
	return c.toCSV
}

// ToObject returns the mutator applied when parsing
func (c *Column) ToObject() *convert.Mutator {
	return c.toObject
}

// Value extracts the raw property value from obj. Missing containers or
// properties along the path result in nil.
func (c *Column) Value(obj interface{}) (interface{}, error) {
	pointer := obj

	for _, s := range c.path {
		if object.IsNil(pointer) {
			return nil, nil
		}

		if s.fn != nil {
			var err error
			if pointer, err = s.fn(pointer); err != nil {
				return nil, err
			}

			continue
		}

		next, ok := object.Get(pointer, s.key)
		if !ok {
			return nil, nil
		}

		pointer = next
	}

	return pointer, nil
}

// CSVSet extracts the property from obj, converts it and stores it in row
// under the header
func (c *Column) CSVSet(obj interface{}, row Row) error {
	value, err := c.Value(obj)
	if err != nil {
		return err
	}

	// the header is used as is, it is never split into a path
	return c.toCSV.Set(row, []string{c.header}, value)
}

// ObjectSet reads the cell under the header from row, converts it and
// stores it in obj at the column's path
func (c *Column) ObjectSet(row Row, obj interface{}) error {
	value, _ := row.Get(c.header)

	return c.toObject.Set(obj, c.Path(), value)
}

// decode decodes a configuration mapping into result. Unknown keys are
// configuration errors.
func decode(input interface{}, result interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           result,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}

	if err := decoder.Decode(object.Normalize(input)); err != nil {
		return errors.Wrapf(ErrConfiguration, "%s", err)
	}

	return nil
}

func toFunc(v interface{}) (convert.Func, bool) {
	switch f := v.(type) {
	case convert.Func:
		return f, true
	case func(interface{}) (interface{}, error):
		return f, true
	case func(interface{}) interface{}:
		return func(v interface{}) (interface{}, error) {
			return f(v), nil
		}, true
	}

	return nil, false
}
