// Package convert turns raw cell and property values into their typed
// representation and back.
package convert

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/nicored/csv-template/object"
)

var (
	// ErrConfiguration is wrapped by every error caused by an invalid
	// converter, mutator or column definition
	ErrConfiguration = errors.New("invalid configuration")

	// ErrConversion is wrapped by every error caused by a value that cannot
	// be converted to the requested type
	ErrConversion = errors.New("conversion failed")
)

const (
	DefaultSeparator  = ","
	DefaultDateFormat = "%Y-%m-%d"
)

// DefaultDate is the date produced by non nullable date converters for nil
// or empty values
var DefaultDate = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// Converter converts a single value
type Converter interface {
	Convert(value interface{}) (interface{}, error)
}

// Func is a custom unary conversion
type Func func(value interface{}) (interface{}, error)

// Convert implements Converter
func (f Func) Convert(value interface{}) (interface{}, error) {
	return f(value)
}

// NullConverter returns values untouched
type NullConverter struct{}

// Convert implements Converter
func (NullConverter) Convert(value interface{}) (interface{}, error) {
	return value, nil
}

// Options is the full definition of a TypeConverter. It is also the shape
// expected from configuration mappings.
type Options struct {
	Type        string      `mapstructure:"type"`
	Nullable    bool        `mapstructure:"nullable"`
	Separator   string      `mapstructure:"separator"`
	DateFormat  string      `mapstructure:"date_format"`
	SubProperty string      `mapstructure:"sub_property"`
	Per         interface{} `mapstructure:"per"`
	Function    interface{} `mapstructure:"function"`

	// NewObject builds the elements produced by pluck_split.
	// Defaults to map[string]interface{}.
	NewObject func() interface{} `mapstructure:"new_object"`
}

// TypeConverter is an immutable conversion rule
type TypeConverter struct {
	typ         Type
	nullable    bool
	separator   string
	dateFormat  string
	subProperty string
	per         Converter
	function    Func
	newObject   func() interface{}
}

// New builds a TypeConverter from:
//   - a Func or a func(interface{}) (interface{}, error) / func(interface{}) interface{},
//     producing a function converter
//   - Options, or a mapping with the same keys (type is required)
//   - a Type, or anything else used as a type tag
func New(arg interface{}) (*TypeConverter, error) {
	switch a := arg.(type) {
	case nil:
		return nil, errors.Wrap(ErrConfiguration, "converter type is required")
	case *TypeConverter:
		return a, nil
	case Func, func(interface{}) (interface{}, error), func(interface{}) interface{}:
		return NewFromOptions(Options{Type: TypeFunction.String(), Function: a})
	case Options:
		return NewFromOptions(a)
	case *Options:
		return NewFromOptions(*a)
	case map[string]interface{}, map[interface{}]interface{}:
		opts, err := decodeOptions(a)
		if err != nil {
			return nil, err
		}

		return NewFromOptions(opts)
	case Type:
		return NewFromOptions(Options{Type: a.String()})
	case string:
		return NewFromOptions(Options{Type: a})
	}

	return NewFromOptions(Options{Type: fmt.Sprint(arg)})
}

// NewFromOptions builds a TypeConverter from its full definition
func NewFromOptions(opts Options) (*TypeConverter, error) {
	typ, err := ParseType(opts.Type)
	if err != nil {
		return nil, err
	}

	c := &TypeConverter{
		typ:         typ,
		nullable:    opts.Nullable,
		separator:   opts.Separator,
		dateFormat:  opts.DateFormat,
		subProperty: opts.SubProperty,
		per:         NullConverter{},
		newObject:   opts.NewObject,
	}

	if c.separator == "" {
		c.separator = DefaultSeparator
	}

	if c.dateFormat == "" {
		c.dateFormat = DefaultDateFormat
	}

	if c.newObject == nil {
		c.newObject = newMap
	}

	if opts.Per != nil {
		per, err := New(opts.Per)
		if err != nil {
			return nil, errors.Wrapf(err, "error building 'per' converter of %s", typ)
		}

		c.per = per
	}

	switch typ {
	case TypePluckJoin, TypePluckSplit:
		if c.subProperty == "" {
			return nil, errors.Wrapf(ErrConfiguration, "sub_property is required for %s", typ)
		}
	case TypeFunction:
		if c.function, err = resolveFunction(opts.Function); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Type returns the conversion rule
func (c *TypeConverter) Type() Type {
	return c.typ
}

// Nullable reports whether nil and empty values convert to nil
func (c *TypeConverter) Nullable() bool {
	return c.nullable
}

// Separator is used by join and split types
func (c *TypeConverter) Separator() string {
	return c.separator
}

// DateFormat is the strftime format used to parse and format dates
func (c *TypeConverter) DateFormat() string {
	return c.dateFormat
}

// SubProperty is the key plucked by pluck_join and pluck_split
func (c *TypeConverter) SubProperty() string {
	return c.subProperty
}

// Per is applied to each element by the join, split and pluck types
func (c *TypeConverter) Per() Converter {
	return c.per
}

// Convert implements Converter
func (c *TypeConverter) Convert(value interface{}) (interface{}, error) {
	switch c.typ {
	case TypeString:
		return c.processString(value)
	case TypeInteger:
		return c.processInteger(value)
	case TypeFloat:
		return c.processFloat(value)
	case TypeBigDecimal:
		return c.processBigDecimal(value)
	case TypeBoolean:
		return c.processBoolean(value)
	case TypeDate:
		return c.processDate(value)
	case TypeJoin:
		return c.processJoin(value)
	case TypeSplit:
		return c.processSplit(value)
	case TypePluckJoin:
		return c.processPluckJoin(value)
	case TypePluckSplit:
		return c.processPluckSplit(value)
	case TypeFunction:
		return c.function(value)
	}

	return nil, errors.Wrapf(ErrConfiguration, "unsupported converter type %d", c.typ)
}

func decodeOptions(input interface{}) (Options, error) {
	var opts Options

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &opts,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return opts, err
	}

	if err := decoder.Decode(object.Normalize(input)); err != nil {
		return opts, errors.Wrapf(ErrConfiguration, "invalid converter options: %s", err)
	}

	return opts, nil
}

func resolveFunction(fn interface{}) (Func, error) {
	switch f := fn.(type) {
	case nil:
		return nil, errors.Wrap(ErrConfiguration, "function is required for function type")
	case Func:
		return f, nil
	case func(interface{}) (interface{}, error):
		return f, nil
	case func(interface{}) interface{}:
		return func(v interface{}) (interface{}, error) {
			return f(v), nil
		}, nil
	case Converter:
		return f.Convert, nil
	case string:
		found, ok := LookupFunction(f)
		if !ok {
			return nil, errors.Wrapf(ErrConfiguration, "function '%s' does not exist", f)
		}

		return found, nil
	}

	return nil, errors.Wrapf(ErrConfiguration, "%T is not a function", fn)
}

func newMap() interface{} {
	return map[string]interface{}{}
}
