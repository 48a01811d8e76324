// Package object reads and writes values along property paths inside
// arbitrary object graphs made of maps and structs.
package object

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// ErrIncompatible is returned when a value can not be stored in a typed
// field or map, or when a path walks into something that is not a container.
var ErrIncompatible = errors.New("incompatible value")

// Container is the capability a value needs so that path segments can be
// resolved against it.
type Container interface {
	// Get returns the value stored under key and whether it was found
	Get(key string) (interface{}, bool)

	// Set stores value under key, in place
	Set(key string, value interface{}) error

	// Child returns the container stored under key, creating an empty one
	// when nothing is stored there yet
	Child(key string) (Container, error)

	// Empty returns a new empty container of the same concrete kind
	Empty() Container

	// Unwrap returns the underlying value
	Unwrap() interface{}
}

// Wrap returns the Container view of v: v itself when it implements
// Container, a MapContainer for maps (or pointers to maps), and an
// AttributeContainer for structs. A struct passed by value is copied, so
// writes through its container are not visible to the caller.
// Wrap returns nil for anything else, nil pointers included.
func Wrap(v interface{}) Container {
	if v == nil {
		return nil
	}

	if c, ok := v.(Container); ok {
		return c
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		return &MapContainer{m: rv}
	case reflect.Ptr:
		if rv.IsNil() {
			return nil
		}

		switch rv.Elem().Kind() {
		case reflect.Struct:
			return newAttributeContainer(rv.Elem())
		case reflect.Map:
			return &MapContainer{m: rv.Elem()}
		}
	case reflect.Struct:
		cp := reflect.New(rv.Type()).Elem()
		cp.Set(rv)
		return newAttributeContainer(cp)
	}

	return nil
}

// Get returns the value stored under key in v. Anything that is not a
// container, or that does not hold key, reports false.
func Get(v interface{}, key string) (interface{}, bool) {
	c := Wrap(v)
	if c == nil {
		return nil, false
	}

	return c.Get(key)
}

// Set stores value under key in v, in place. Set is a no-op when v is not a
// container.
func Set(v interface{}, key string, value interface{}) error {
	c := Wrap(v)
	if c == nil {
		return nil
	}

	return c.Set(key, value)
}

// Traverse resolves path against v one segment at a time and returns the
// value reached. It returns nil as soon as a segment is missing or an
// intermediate value is nil.
func Traverse(v interface{}, path []string) interface{} {
	pointer := v

	for _, key := range path {
		if IsNil(pointer) {
			return nil
		}

		next, ok := Get(pointer, key)
		if !ok {
			return nil
		}

		pointer = next
	}

	return pointer
}

// Build walks path from v, creating the missing intermediate containers,
// and returns the container reached.
func Build(v interface{}, path []string) (Container, error) {
	pointer := Wrap(v)
	if pointer == nil {
		return nil, errors.Wrapf(ErrIncompatible, "%T is not a container", v)
	}

	for _, key := range path {
		next, err := pointer.Child(key)
		if err != nil {
			return nil, errors.Wrapf(err, "error building '%s'", key)
		}

		pointer = next
	}

	return pointer, nil
}

// SetPath stores value at the end of path, creating the intermediate
// containers as needed.
func SetPath(v interface{}, path []string, value interface{}) error {
	if len(path) == 0 {
		return errors.New("path cannot be empty")
	}

	last := len(path) - 1

	c, err := Build(v, path[:last])
	if err != nil {
		return err
	}

	return c.Set(path[last], value)
}

// Normalize converts the map[interface{}]interface{} and yaml.MapSlice values
// produced by YAML decoders into map[string]interface{}, recursively.
func Normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case yaml.MapSlice:
		m := make(map[string]interface{}, len(t))
		for _, item := range t {
			m[fmt.Sprint(item.Key)] = Normalize(item.Value)
		}
		return m
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = Normalize(val)
		}
		return m
	case map[string]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, val := range t {
			m[k] = Normalize(val)
		}
		return m
	case []interface{}:
		s := make([]interface{}, len(t))
		for i, val := range t {
			s[i] = Normalize(val)
		}
		return s
	}

	return v
}

// IsNil reports whether v is nil or a nil pointer, map, slice, func or
// interface.
func IsNil(v interface{}) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}

	return false
}

// newContainer returns an empty container for a value of type t, or nil when
// t can not hold one.
func newContainer(t reflect.Type) Container {
	switch t.Kind() {
	case reflect.Map:
		return &MapContainer{m: reflect.MakeMap(t)}
	case reflect.Ptr:
		if t.Elem().Kind() == reflect.Struct {
			return newAttributeContainer(reflect.New(t.Elem()).Elem())
		}
	case reflect.Interface:
		return &MapContainer{m: reflect.ValueOf(map[string]interface{}{})}
	}

	return nil
}
