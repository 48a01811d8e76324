package csv

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/nicored/csv-template/object"
)

// fieldKeys are the only keys allowed in a field definition
var fieldKeys = map[string]bool{"field": true, "header": true, "to_csv": true, "to_object": true}

// ColumnSet is an ordered collection of columns keyed by header. Adding a
// column with an existing header replaces it and keeps its position.
//
// A ColumnSet must not be modified while templates read it.
type ColumnSet struct {
	headers []string
	columns map[string]*Column
}

// NewColumnSet creates a ColumnSet and adds items to it
func NewColumnSet(items ...interface{}) (*ColumnSet, error) {
	cs := &ColumnSet{columns: map[string]*Column{}}

	if err := cs.Add(items...); err != nil {
		return nil, err
	}

	return cs, nil
}

// Add adds columns from items, processed left to right. Slices are
// flattened. An item can be:
//   - a *Column
//   - a *ColumnSet, whose columns are added in order
//   - a mapping of header to column options, see NewColumnFromMap.
//     yaml.MapSlice keeps its order, Go maps are added in header order.
//   - a field definition mapping such as {field: [license, id], header: License}
//   - anything else, used as the header of a default column
func (cs *ColumnSet) Add(items ...interface{}) error {
	for _, item := range items {
		if err := cs.add(item); err != nil {
			return err
		}
	}

	return nil
}

func (cs *ColumnSet) add(item interface{}) error {
	switch it := item.(type) {
	case nil:
		return nil
	case *Column:
		if err := validColumn(it); err != nil {
			return err
		}

		cs.put(it)
		return nil
	case Column:
		return errors.Wrap(ErrConfiguration, "columns are added by pointer, as returned by NewColumn")
	case *ColumnSet:
		for _, c := range it.Columns() {
			cs.put(c)
		}
		return nil
	case string:
		return cs.Column(it, nil)
	case yaml.MapSlice:
		if isFieldDef(it) {
			return cs.addField(object.Normalize(it).(map[string]interface{}))
		}

		for _, entry := range it {
			if err := cs.Column(fmt.Sprint(entry.Key), entry.Value); err != nil {
				return err
			}
		}
		return nil
	case map[string]interface{}, map[interface{}]interface{}:
		m := object.Normalize(it).(map[string]interface{})
		if isFieldDef(m) {
			return cs.addField(m)
		}

		headers := make([]string, 0, len(m))
		for h := range m {
			headers = append(headers, h)
		}
		sort.Strings(headers)

		for _, h := range headers {
			if err := cs.Column(h, m[h]); err != nil {
				return err
			}
		}
		return nil
	}

	if rv := reflect.ValueOf(item); rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		for i := 0; i < rv.Len(); i++ {
			if err := cs.add(rv.Index(i).Interface()); err != nil {
				return err
			}
		}

		return nil
	}

	return cs.Column(fmt.Sprint(item), nil)
}

// Column creates a column from header and opts, then adds it
func (cs *ColumnSet) Column(header string, opts interface{}) error {
	c, err := NewColumnFromMap(header, opts)
	if err != nil {
		return err
	}

	cs.put(c)
	return nil
}

// Headers returns the headers in order
func (cs *ColumnSet) Headers() []string {
	return append([]string{}, cs.headers...)
}

// Columns returns the columns in order
func (cs *ColumnSet) Columns() []*Column {
	out := make([]*Column, 0, len(cs.headers))
	for _, h := range cs.headers {
		out = append(out, cs.columns[h])
	}

	return out
}

// Get returns the column with the given header
func (cs *ColumnSet) Get(header string) (*Column, bool) {
	c, ok := cs.columns[header]
	return c, ok
}

// Len returns the number of columns
func (cs *ColumnSet) Len() int {
	return len(cs.headers)
}

func (cs *ColumnSet) put(c *Column) {
	if _, ok := cs.columns[c.header]; !ok {
		cs.headers = append(cs.headers, c.header)
	}

	cs.columns[c.header] = c
}

// validColumn rejects columns not built by NewColumn, such as zero values
func validColumn(c *Column) error {
	if c == nil || c.header == "" {
		return errors.Wrap(ErrConfiguration, "header is required")
	}

	if c.toCSV == nil || c.toObject == nil {
		return errors.Wrapf(ErrConfiguration, "column '%s' was not created with NewColumn", c.header)
	}

	return nil
}

func (cs *ColumnSet) addField(def map[string]interface{}) error {
	c, err := newFieldColumn(def)
	if err != nil {
		return errors.Wrapf(err, "invalid field column %v", def["field"])
	}

	cs.put(c)
	return nil
}

// isFieldDef reports whether m is a field definition rather than a mapping
// of headers
func isFieldDef(m interface{}) bool {
	var keys []string

	switch t := m.(type) {
	case yaml.MapSlice:
		for _, item := range t {
			keys = append(keys, fmt.Sprint(item.Key))
		}
	case map[string]interface{}:
		for k := range t {
			keys = append(keys, k)
		}
	}

	hasField := false
	for _, k := range keys {
		if !fieldKeys[k] {
			return false
		}

		hasField = hasField || k == "field"
	}

	return hasField
}

// toItems returns the elements of a slice, or v alone
func toItems(v interface{}) []interface{} {
	if v == nil {
		return nil
	}

	if s, ok := v.([]interface{}); ok {
		return s
	}

	if _, ok := v.(string); !ok {
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			out := make([]interface{}, rv.Len())
			for i := range out {
				out[i] = rv.Index(i).Interface()
			}

			return out
		}
	}

	return []interface{}{v}
}
