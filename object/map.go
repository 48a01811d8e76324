package object

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

// MapContainer resolves keys against a map of any type. Lookups are
// indifferent: the key is first tried as given, converted to the map's key
// type, then compared to the string form of every key in the map.
type MapContainer struct {
	m reflect.Value
}

// Get implements Container
func (c *MapContainer) Get(key string) (interface{}, bool) {
	k, ok := c.find(key)
	if !ok {
		return nil, false
	}

	return c.m.MapIndex(k).Interface(), true
}

// Set implements Container. An existing key with the same string form is
// overwritten rather than a second key being added.
func (c *MapContainer) Set(key string, value interface{}) error {
	k, ok := c.find(key)
	if !ok {
		if k, ok = c.key(key); !ok {
			return errors.Wrapf(ErrIncompatible, "key '%s' does not fit %s", key, c.m.Type())
		}
	}

	if c.m.IsNil() {
		if !c.m.CanSet() {
			return errors.Wrapf(ErrIncompatible, "cannot set '%s' on a nil %s", key, c.m.Type())
		}

		c.m.Set(reflect.MakeMap(c.m.Type()))
	}

	elem := reflect.New(c.m.Type().Elem()).Elem()
	if err := assign(elem, value); err != nil {
		return errors.Wrapf(err, "error setting '%s'", key)
	}

	c.m.SetMapIndex(k, elem)
	return nil
}

// Child implements Container. A missing child of a map holding interface
// values is a new map of the same type as c; typed maps get a zero value of
// their element type.
func (c *MapContainer) Child(key string) (Container, error) {
	if v, ok := c.Get(key); ok && !IsNil(v) {
		if reflect.TypeOf(v).Kind() == reflect.Struct {
			return nil, errors.Wrapf(ErrIncompatible, "'%s' holds a %T by value and cannot be written to", key, v)
		}

		child := Wrap(v)
		if child == nil {
			return nil, errors.Wrapf(ErrIncompatible, "'%s' holds a %T", key, v)
		}

		return child, nil
	}

	var child Container
	if et := c.m.Type().Elem(); et.Kind() == reflect.Interface {
		child = c.Empty()
	} else {
		child = newContainer(et)
	}

	if child == nil {
		return nil, errors.Wrapf(ErrIncompatible, "'%s' of %s cannot hold a container", key, c.m.Type())
	}

	if err := c.Set(key, child.Unwrap()); err != nil {
		return nil, err
	}

	return child, nil
}

// Empty implements Container
func (c *MapContainer) Empty() Container {
	return &MapContainer{m: reflect.MakeMap(c.m.Type())}
}

// Unwrap implements Container
func (c *MapContainer) Unwrap() interface{} {
	return c.m.Interface()
}

// find returns the existing map key matching key
func (c *MapContainer) find(key string) (reflect.Value, bool) {
	if c.m.Len() == 0 {
		return reflect.Value{}, false
	}

	if k, ok := c.key(key); ok && c.m.MapIndex(k).IsValid() {
		return k, true
	}

	iter := c.m.MapRange()
	for iter.Next() {
		if keyString(iter.Key()) == key {
			return iter.Key(), true
		}
	}

	return reflect.Value{}, false
}

// key converts key to the map's key type
func (c *MapContainer) key(key string) (reflect.Value, bool) {
	kt := c.m.Type().Key()

	switch kt.Kind() {
	case reflect.String:
		return reflect.ValueOf(key).Convert(kt), true
	case reflect.Interface:
		if reflect.TypeOf(key).Implements(kt) {
			return reflect.ValueOf(key), true
		}
	}

	return reflect.Value{}, false
}

func keyString(k reflect.Value) string {
	if k.Kind() == reflect.Interface {
		k = k.Elem()
	}

	if !k.IsValid() {
		return ""
	}

	return fmt.Sprint(k.Interface())
}
