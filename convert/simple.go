package convert

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/itchyny/timefmt-go"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/nicored/csv-template/object"
)

var (
	truthy = map[string]bool{"true": true, "t": true, "yes": true, "y": true, "1": true}

	nully       = regexp.MustCompile(`(?i)(nil|null)$`)
	intPrefix   = regexp.MustCompile(`^\s*([+-]?\d+(?:_\d+)*)`)
	floatPrefix = regexp.MustCompile(`^\s*([+-]?)(\d+(?:_\d+)*)?(\.\d+)?([eE][+-]?\d+)?`)
)

func (c *TypeConverter) processString(v interface{}) (interface{}, error) {
	if c.nullable && c.nullOrEmpty(v) {
		return nil, nil
	}

	return Format(v, c.dateFormat), nil
}

// processInteger parses the leading integer of the value, like a liberal
// numeric prefix parse: "12abc" is 12 and "abc" is 0.
func (c *TypeConverter) processInteger(v interface{}) (interface{}, error) {
	if c.nullable && c.nullOrEmpty(v) {
		return nil, nil
	}

	switch n := deref(v).(type) {
	case decimal.Decimal:
		i := n.IntPart()
		if !n.Truncate(0).Equal(decimal.NewFromInt(i)) || int64(int(i)) != i {
			return nil, errors.Wrapf(ErrConversion, "%s overflows integer", n)
		}
		return int(i), nil
	case bool:
		return nil, errors.Wrapf(ErrConversion, "cannot convert boolean %t to integer", n)
	}

	if i, ok, err := reflectInt(deref(v)); err != nil {
		return nil, err
	} else if ok {
		return i, nil
	}

	m := intPrefix.FindStringSubmatch(Format(v, c.dateFormat))
	if m == nil {
		return 0, nil
	}

	i, err := strconv.Atoi(strings.ReplaceAll(m[1], "_", ""))
	if err != nil {
		return nil, errors.Wrapf(ErrConversion, "'%s' is not a valid integer: %s", m[1], err)
	}

	return i, nil
}

// reflectInt converts numeric kinds to int. ok is false for other kinds.
func reflectInt(v interface{}) (i int, ok bool, err error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return 0, false, nil
	}

	switch {
	case rv.CanInt():
		if n := rv.Int(); int64(int(n)) == n {
			return int(n), true, nil
		}
	case rv.CanUint():
		if n := rv.Uint(); n <= math.MaxInt {
			return int(n), true, nil
		}
	case rv.CanFloat():
		// float64(math.MaxInt) rounds up to 2^63
		if f := rv.Float(); !math.IsNaN(f) && f >= math.MinInt && f < float64(math.MaxInt) {
			return int(f), true, nil
		}
	default:
		return 0, false, nil
	}

	return 0, true, errors.Wrapf(ErrConversion, "%v overflows integer", v)
}

// processFloat parses the leading floating point number of the value, "abc"
// being 0.
func (c *TypeConverter) processFloat(v interface{}) (interface{}, error) {
	if c.nullable && c.nullOrEmpty(v) {
		return nil, nil
	}

	switch n := deref(v).(type) {
	case decimal.Decimal:
		f, _ := n.Float64()
		return f, nil
	case bool:
		return nil, errors.Wrapf(ErrConversion, "cannot convert boolean %t to float", n)
	}

	if rv := reflect.ValueOf(deref(v)); rv.IsValid() {
		switch {
		case rv.CanInt():
			return float64(rv.Int()), nil
		case rv.CanUint():
			return float64(rv.Uint()), nil
		case rv.CanFloat():
			return rv.Float(), nil
		}
	}

	m := floatPrefix.FindStringSubmatch(Format(v, c.dateFormat))
	if m == nil || (m[2] == "" && m[3] == "") {
		return 0.0, nil
	}

	f, err := strconv.ParseFloat(strings.ReplaceAll(m[1]+m[2]+m[3]+m[4], "_", ""), 64)
	if err != nil {
		return nil, errors.Wrapf(ErrConversion, "'%s' is not a valid float: %s", m[0], err)
	}

	return f, nil
}

func (c *TypeConverter) processBigDecimal(v interface{}) (interface{}, error) {
	if c.nullOrEmpty(v) {
		if c.nullable {
			return nil, nil
		}

		return decimal.Zero, nil
	}

	switch n := deref(v).(type) {
	case decimal.Decimal:
		return n, nil
	case float32:
		return decimal.NewFromFloat32(n), nil
	case float64:
		return decimal.NewFromFloat(n), nil
	}

	if rv := reflect.ValueOf(deref(v)); rv.CanInt() {
		return decimal.NewFromInt(rv.Int()), nil
	}

	s := strings.TrimSpace(Format(v, c.dateFormat))

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, errors.Wrapf(ErrConversion, "'%s' is not a valid decimal", s)
	}

	return d, nil
}

func (c *TypeConverter) processBoolean(v interface{}) (interface{}, error) {
	if b, ok := deref(v).(bool); ok {
		return b, nil
	}

	s := strings.TrimSpace(Format(v, c.dateFormat))

	if c.nullable && (s == "" || nully.MatchString(s)) {
		return nil, nil
	}

	return truthy[strings.ToLower(s)], nil
}

func (c *TypeConverter) processDate(v interface{}) (interface{}, error) {
	if c.nullOrEmpty(v) {
		if c.nullable {
			return nil, nil
		}

		return DefaultDate, nil
	}

	if t, ok := deref(v).(time.Time); ok {
		return t, nil
	}

	s := Format(v, c.dateFormat)

	t, err := timefmt.Parse(s, c.dateFormat)
	if err != nil {
		return nil, errors.Wrapf(ErrConversion, "'%s' does not match date format '%s'", s, c.dateFormat)
	}

	return t, nil
}

func (c *TypeConverter) processJoin(v interface{}) (interface{}, error) {
	items := toSlice(v)
	parts := make([]string, 0, len(items))

	for i, item := range items {
		converted, err := c.per.Convert(item)
		if err != nil {
			return nil, errors.Wrapf(err, "element %d", i)
		}

		parts = append(parts, Format(converted, c.dateFormat))
	}

	return strings.Join(parts, c.separator), nil
}

// processSplit drops trailing empty pieces: "a,b,," is [a b] and "" is empty.
func (c *TypeConverter) processSplit(v interface{}) (interface{}, error) {
	s := Format(v, c.dateFormat)
	if s == "" {
		return []interface{}{}, nil
	}

	pieces := strings.Split(s, c.separator)
	for len(pieces) > 0 && pieces[len(pieces)-1] == "" {
		pieces = pieces[:len(pieces)-1]
	}

	out := make([]interface{}, 0, len(pieces))
	for i, piece := range pieces {
		converted, err := c.per.Convert(piece)
		if err != nil {
			return nil, errors.Wrapf(err, "element %d", i)
		}

		out = append(out, converted)
	}

	return out, nil
}

func (c *TypeConverter) processPluckJoin(v interface{}) (interface{}, error) {
	items := toSlice(v)
	parts := make([]string, 0, len(items))

	for i, item := range items {
		plucked, _ := object.Get(item, c.subProperty)

		converted, err := c.per.Convert(plucked)
		if err != nil {
			return nil, errors.Wrapf(err, "element %d", i)
		}

		parts = append(parts, Format(converted, c.dateFormat))
	}

	return strings.Join(parts, c.separator), nil
}

func (c *TypeConverter) processPluckSplit(v interface{}) (interface{}, error) {
	pieces, err := c.processSplit(v)
	if err != nil {
		return nil, err
	}

	values := pieces.([]interface{})
	out := make([]interface{}, 0, len(values))

	for i, piece := range values {
		obj := c.newObject()
		if err := object.Set(obj, c.subProperty, piece); err != nil {
			return nil, errors.Wrapf(ErrConversion, "element %d: %s", i, err)
		}

		out = append(out, obj)
	}

	return out, nil
}

func (c *TypeConverter) nullOrEmpty(v interface{}) bool {
	return Format(v, c.dateFormat) == ""
}

// Format returns the cell representation of v: "" for nil, dates using the
// strftime dateFormat (DefaultDateFormat when empty), decimals and floats in
// plain notation, and fmt's default format for anything else.
func Format(v interface{}, dateFormat string) string {
	if dateFormat == "" {
		dateFormat = DefaultDateFormat
	}

	switch t := deref(v).(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case time.Time:
		return timefmt.Format(t, dateFormat)
	case decimal.Decimal:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case fmt.Stringer:
		return t.String()
	}

	return fmt.Sprint(deref(v))
}

// deref follows pointers, a nil pointer being nil
func deref(v interface{}) interface{} {
	rv := reflect.ValueOf(v)

	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}

		rv = rv.Elem()
	}

	if !rv.IsValid() {
		return nil
	}

	return rv.Interface()
}

// toSlice returns the elements of slices and arrays. Any other non nil value
// is a single element.
func toSlice(v interface{}) []interface{} {
	v = deref(v)
	if v == nil {
		return nil
	}

	rv := reflect.ValueOf(v)
	if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Type().Elem().Kind() != reflect.Uint8 {
		out := make([]interface{}, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}

		return out
	}

	return []interface{}{v}
}
