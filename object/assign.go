package object

import (
	"reflect"

	"github.com/pkg/errors"
)

// assign stores value into dst, converting it when the types differ but the
// conversion is lossless in intent: numbers between numeric kinds, strings
// between string kinds, pointers to and from their element and slices
// element by element. nil resets dst to its zero value.
func assign(dst reflect.Value, value interface{}) error {
	if IsNil(value) {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}

	return assignValue(dst, reflect.ValueOf(value))
}

func assignValue(dst, src reflect.Value) error {
	dt := dst.Type()

	if src.Type().AssignableTo(dt) {
		dst.Set(src)
		return nil
	}

	if src.Kind() == reflect.Interface || src.Kind() == reflect.Ptr {
		if src.IsNil() {
			dst.Set(reflect.Zero(dt))
			return nil
		}

		if dt.Kind() != reflect.Ptr || src.Kind() == reflect.Interface {
			return assignValue(dst, src.Elem())
		}
	}

	switch dt.Kind() {
	case reflect.Ptr:
		p := reflect.New(dt.Elem())
		if err := assignValue(p.Elem(), src); err != nil {
			return err
		}

		dst.Set(p)
		return nil
	case reflect.Slice:
		if src.Kind() != reflect.Slice && src.Kind() != reflect.Array {
			break
		}

		s := reflect.MakeSlice(dt, src.Len(), src.Len())
		for i := 0; i < src.Len(); i++ {
			if err := assignValue(s.Index(i), src.Index(i)); err != nil {
				return errors.Wrapf(err, "element %d", i)
			}
		}

		dst.Set(s)
		return nil
	}

	if (isNumber(src.Kind()) && isNumber(dt.Kind())) || (src.Kind() == reflect.String && dt.Kind() == reflect.String) {
		dst.Set(src.Convert(dt))
		return nil
	}

	return errors.Wrapf(ErrIncompatible, "cannot assign %s to %s", src.Type(), dt)
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}

	return false
}
