package object

import (
	"reflect"
	"strings"

	"github.com/fatih/structs"
	"github.com/pkg/errors"
)

// tagName is the struct tag consulted when matching keys to fields
const tagName = "csv"

// AttributeContainer resolves keys against the exported fields and methods
// of a struct.
//
// A key matches a field by Go name, by csv tag, then ignoring case,
// underscores and dashes ("first_name" matches FirstName). When no field
// matches, a method taking no argument and returning a single value is used
// as an accessor. Writes prefer a Set<Name> method over the field itself.
type AttributeContainer struct {
	v reflect.Value
	s *structs.Struct
}

// v must be an addressable struct value
func newAttributeContainer(v reflect.Value) *AttributeContainer {
	return &AttributeContainer{
		v: v,
		s: structs.New(v.Addr().Interface()),
	}
}

// Get implements Container
func (c *AttributeContainer) Get(key string) (interface{}, bool) {
	if f, ok := c.field(key); ok {
		return f.Value(), true
	}

	if m, ok := c.accessor(key); ok {
		return m.Call(nil)[0].Interface(), true
	}

	return nil, false
}

// Set implements Container. Keys matching neither a setter nor a field are
// ignored.
func (c *AttributeContainer) Set(key string, value interface{}) error {
	if m, ok := c.setter(key); ok {
		arg := reflect.New(m.Type().In(0)).Elem()
		if err := assign(arg, value); err != nil {
			return errors.Wrapf(err, "error setting '%s' on %s", key, c.v.Type())
		}

		out := m.Call([]reflect.Value{arg})
		if len(out) == 1 && !out[0].IsNil() {
			return out[0].Interface().(error)
		}

		return nil
	}

	f, ok := c.field(key)
	if !ok {
		return nil
	}

	if err := assign(c.v.FieldByName(f.Name()), value); err != nil {
		return errors.Wrapf(err, "error setting '%s' on %s", key, c.v.Type())
	}

	return nil
}

// Child implements Container. Nil pointer, map and interface fields are
// initialized with an empty value of their declared type.
func (c *AttributeContainer) Child(key string) (Container, error) {
	f, ok := c.field(key)
	if !ok {
		if v, ok := c.Get(key); ok {
			if child := Wrap(v); child != nil {
				return child, nil
			}
		}

		return nil, errors.Wrapf(ErrIncompatible, "%s has no field '%s'", c.v.Type(), key)
	}

	fv := c.v.FieldByName(f.Name())

	switch fv.Kind() {
	case reflect.Struct:
		return newAttributeContainer(fv), nil
	case reflect.Ptr:
		if fv.Type().Elem().Kind() != reflect.Struct {
			break
		}

		if fv.IsNil() {
			fv.Set(reflect.New(fv.Type().Elem()))
		}

		return newAttributeContainer(fv.Elem()), nil
	case reflect.Map:
		if fv.IsNil() {
			fv.Set(reflect.MakeMap(fv.Type()))
		}

		return &MapContainer{m: fv}, nil
	case reflect.Interface:
		if fv.IsNil() {
			fv.Set(reflect.ValueOf(map[string]interface{}{}))
		}

		if child := Wrap(fv.Interface()); child != nil {
			return child, nil
		}
	}

	return nil, errors.Wrapf(ErrIncompatible, "field '%s' of %s is a %s", f.Name(), c.v.Type(), fv.Type())
}

// Empty implements Container
func (c *AttributeContainer) Empty() Container {
	return newAttributeContainer(reflect.New(c.v.Type()).Elem())
}

// Unwrap implements Container and returns a pointer to the struct
func (c *AttributeContainer) Unwrap() interface{} {
	return c.v.Addr().Interface()
}

func (c *AttributeContainer) field(key string) (*structs.Field, bool) {
	if f, ok := c.s.FieldOk(key); ok && f.IsExported() {
		return f, true
	}

	fields := c.s.Fields()

	for _, f := range fields {
		if tag := fieldTag(f); tag != "" && tag == key {
			return f, true
		}
	}

	norm := normalize(key)
	for _, f := range fields {
		if normalize(f.Name()) == norm {
			return f, true
		}

		if tag := fieldTag(f); tag != "" && normalize(tag) == norm {
			return f, true
		}
	}

	return nil, false
}

func (c *AttributeContainer) accessor(key string) (reflect.Value, bool) {
	return c.method(normalize(key), func(t reflect.Type) bool {
		return t.NumIn() == 0 && t.NumOut() == 1
	})
}

func (c *AttributeContainer) setter(key string) (reflect.Value, bool) {
	return c.method("set"+normalize(key), func(t reflect.Type) bool {
		if t.NumIn() != 1 {
			return false
		}

		return t.NumOut() == 0 || (t.NumOut() == 1 && t.Out(0) == errorType)
	})
}

func (c *AttributeContainer) method(norm string, accept func(reflect.Type) bool) (reflect.Value, bool) {
	ptr := c.v.Addr()
	t := ptr.Type()

	for i := 0; i < t.NumMethod(); i++ {
		if normalize(t.Method(i).Name) != norm {
			continue
		}

		m := ptr.Method(i)
		if accept(m.Type()) {
			return m, true
		}
	}

	return reflect.Value{}, false
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func fieldTag(f *structs.Field) string {
	tag := strings.Split(f.Tag(tagName), ",")[0]
	if tag == "-" {
		return ""
	}

	return tag
}

func normalize(s string) string {
	return strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(s))
}
