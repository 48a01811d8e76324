package csv

import (
	"bytes"
	"io"
	"reflect"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nicored/csv-template/convert"
	"github.com/nicored/csv-template/object"
)

// TemplateOption configures a Template
type TemplateOption func(t *Template) error

// WithColumns contributes columns to the template. Contributions are merged
// in the order they are given, later columns overriding earlier ones
// sharing a header, so base columns come first.
func WithColumns(items ...interface{}) TemplateOption {
	return func(t *Template) error {
		t.contributors = append(t.contributors, items)
		return t.columns.Add(items...)
	}
}

// WithObject sets the factory of the objects built by Parse.
// Defaults to map[string]interface{}.
func WithObject(newObject func() interface{}) TemplateOption {
	return func(t *Template) error {
		if newObject == nil {
			return errors.Wrap(ErrConfiguration, "object factory is required")
		}

		if err := writable(newObject()); err != nil {
			return err
		}

		t.newObject = newObject
		return nil
	}
}

// WithLogger sets the logger, logrus.StandardLogger() by default
func WithLogger(l logrus.FieldLogger) TemplateOption {
	return func(t *Template) error {
		t.logger = l
		return nil
	}
}

// Template converts objects to CSV and CSV to objects through its columns
type Template struct {
	contributors [][]interface{}
	columns      *ColumnSet
	newObject    func() interface{}
	logger       logrus.FieldLogger
}

// NewTemplate creates a template
func NewTemplate(opts ...TemplateOption) (*Template, error) {
	t := &Template{
		columns:   &ColumnSet{columns: map[string]*Column{}},
		newObject: func() interface{} { return map[string]interface{}{} },
		logger:    logrus.StandardLogger(),
	}

	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// Extend returns a new template holding the columns of t with opts applied
// on top. t is left untouched.
func (t *Template) Extend(opts ...TemplateOption) (*Template, error) {
	base := []TemplateOption{
		WithObject(t.newObject),
		WithLogger(t.logger),
	}

	for _, items := range t.contributors {
		base = append(base, WithColumns(items...))
	}

	return NewTemplate(append(base, opts...)...)
}

// Subset returns a template restricted to the given headers, in the given
// order
func (t *Template) Subset(headers ...string) (*Template, error) {
	var cols []interface{}

	for _, h := range headers {
		c, ok := t.columns.Get(h)
		if !ok {
			return nil, errors.Wrapf(ErrConfiguration, "column '%s' does not exist", h)
		}

		cols = append(cols, c)
	}

	return NewTemplate(WithObject(t.newObject), WithLogger(t.logger), WithColumns(cols...))
}

// Columns returns the columns in order
func (t *Template) Columns() []*Column {
	return t.columns.Columns()
}

// Headers returns the column headers in order
func (t *Template) Headers() []string {
	return t.columns.Headers()
}

// Row extracts the cells of obj, keyed by header
func (t *Template) Row(obj interface{}) (Row, error) {
	row := Row{}

	for _, c := range t.columns.Columns() {
		if err := c.CSVSet(obj, row); err != nil {
			return nil, errors.Wrapf(err, "column '%s'", c.header)
		}
	}

	return row, nil
}

// Object builds a new object from the cells of row
func (t *Template) Object(row Row) (interface{}, error) {
	obj := t.newObject()
	if err := writable(obj); err != nil {
		return nil, err
	}

	for _, c := range t.columns.Columns() {
		if err := c.ObjectSet(row, obj); err != nil {
			return nil, errors.Wrapf(err, "column '%s'", c.header)
		}
	}

	return obj, nil
}

// Generate converts objects to CSV text. objects is either a single object
// or a slice of objects.
func (t *Template) Generate(objects interface{}, opts WriteOptions) (string, error) {
	var buf bytes.Buffer

	if err := t.GenerateTo(&buf, objects, opts); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// GenerateTo writes objects as CSV into w. Nothing is written when a
// conversion fails.
func (t *Template) GenerateTo(w io.Writer, objects interface{}, opts WriteOptions) error {
	headers := t.Headers()
	list := toObjects(objects)
	records := make([][]string, 0, len(list))

	for i, obj := range list {
		row, err := t.Row(obj)
		if err != nil {
			return errors.Wrapf(err, "row %d", i+1)
		}

		rec := make([]string, len(headers))
		for j, h := range headers {
			rec[j] = t.cell(h, row[h])
		}

		records = append(records, rec)
	}

	t.logger.WithFields(logrus.Fields{
		"columns": len(headers),
		"rows":    len(records),
	}).Debug("generating csv")

	return opts.write(w, headers, records)
}

// Parse converts CSV text to objects
func (t *Template) Parse(text string, opts ReadOptions) ([]interface{}, error) {
	return t.ParseFrom(strings.NewReader(text), opts)
}

// ParseFrom reads CSV from r and converts each row to an object. The first
// record is the header row.
func (t *Template) ParseFrom(r io.Reader, opts ReadOptions) ([]interface{}, error) {
	rows, err := opts.read(r)
	if err != nil {
		return nil, errors.Wrap(err, "could not read csv")
	}

	objects := make([]interface{}, 0, len(rows))

	for i, row := range rows {
		obj, err := t.Object(row)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i+1)
		}

		objects = append(objects, obj)
	}

	t.logger.WithFields(logrus.Fields{
		"columns": t.columns.Len(),
		"rows":    len(objects),
	}).Debug("parsed csv")

	return objects, nil
}

// cell stringifies a value, formatting dates with the column's to_csv date
// format when it has one
func (t *Template) cell(header string, v interface{}) string {
	format := convert.DefaultDateFormat

	if c, ok := t.columns.Get(header); ok {
		if tc, ok := c.toCSV.Converter().(*convert.TypeConverter); ok {
			format = tc.DateFormat()
		}
	}

	return convert.Format(v, format)
}

// writable checks that values written into obj through the object package
// are visible to the caller. Structs must be given by pointer.
func writable(obj interface{}) error {
	if _, ok := obj.(object.Container); ok {
		return nil
	}

	if obj != nil && reflect.TypeOf(obj).Kind() == reflect.Struct {
		return errors.Wrapf(ErrConfiguration, "object factory returns a %T, not a pointer to it", obj)
	}

	if object.Wrap(obj) == nil {
		return errors.Wrapf(ErrConfiguration, "object factory returns a %T, which cannot hold properties", obj)
	}

	return nil
}

// ColumnsOf returns the headers of the csv tagged fields of v, a struct or
// a pointer to a struct. Used with WithColumns they map every tagged field
// to a column of the same name.
func ColumnsOf(v interface{}) ([]interface{}, error) {
	headers, err := csvutil.Header(v, "csv")
	if err != nil {
		return nil, errors.Wrapf(ErrConfiguration, "%s", err)
	}

	out := make([]interface{}, len(headers))
	for i, h := range headers {
		out[i] = h
	}

	return out, nil
}

// toObjects normalizes a single object into a list
func toObjects(v interface{}) []interface{} {
	if v == nil {
		return nil
	}

	switch t := v.(type) {
	case []interface{}:
		return t
	case Row, map[string]interface{}, map[interface{}]interface{}:
		return []interface{}{t}
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []interface{}{v}
	}

	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}

	return out
}
