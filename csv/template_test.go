package csv

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var people = []interface{}{
	map[string]interface{}{"name": "Matt", "dob": "1901-01-03"},
	map[string]interface{}{"name": "Nathan", "dob": "1931-09-03"},
}

func fieldTemplate(t *testing.T) *Template {
	t.Helper()

	tpl, err := NewTemplate(WithColumns(
		map[string]interface{}{"field": "name"},
		map[string]interface{}{"field": "dob"},
	))
	require.NoError(t, err)

	return tpl
}

func TestGenerate(t *testing.T) {
	tpl := fieldTemplate(t)

	out, err := tpl.Generate(people, WriteOptions{})
	require.NoError(t, err)
	assert.Equal(t, "name,dob\nMatt,1901-01-03\nNathan,1931-09-03\n", out)

	out, err = tpl.Generate(people, WriteOptions{ForceQuotes: true})
	require.NoError(t, err)
	assert.Equal(t, "\"name\",\"dob\"\n\"Matt\",\"1901-01-03\"\n\"Nathan\",\"1931-09-03\"\n", out)

	out, err = tpl.Generate(people[0], WriteOptions{Comma: ';', UseCRLF: true})
	require.NoError(t, err)
	assert.Equal(t, "name;dob\r\nMatt;1901-01-03\r\n", out)

	out, err = tpl.Generate(nil, WriteOptions{})
	require.NoError(t, err)
	assert.Equal(t, "name,dob\n", out)

	out, err = tpl.Generate([]interface{}{}, WriteOptions{BOM: true})
	require.NoError(t, err)
	assert.Equal(t, bom+"name,dob\n", out)
}

func TestGenerateQuoting(t *testing.T) {
	tpl, err := NewTemplate(WithColumns("a", "b"))
	require.NoError(t, err)

	objects := []map[string]interface{}{{"a": "x,y", "b": `say "hi"`}}

	out, err := tpl.Generate(objects, WriteOptions{})
	require.NoError(t, err)
	assert.Equal(t, "a,b\n\"x,y\",\"say \"\"hi\"\"\"\n", out)

	out, err = tpl.Generate(objects, WriteOptions{Quote: '\''})
	require.NoError(t, err)
	assert.Equal(t, "a,b\n'x,y',say \"hi\"\n", out)
}

func TestParse(t *testing.T) {
	tpl := fieldTemplate(t)

	objects, err := tpl.Parse("name,dob\nMatt,1901-01-03\nNathan,1931-09-03\n", ReadOptions{})
	require.NoError(t, err)

	if diff := cmp.Diff(people, objects); diff != "" {
		t.Errorf("parsed objects mismatch (-want +got):\n%s", diff)
	}

	objects, err = tpl.Parse(bom+"dob,name\n1901-01-03,Matt\n", ReadOptions{})
	require.NoError(t, err)

	if diff := cmp.Diff(people[:1], objects); diff != "" {
		t.Errorf("parsed objects mismatch (-want +got):\n%s", diff)
	}

	objects, err = tpl.Parse("name,dob\n", ReadOptions{})
	require.NoError(t, err)
	assert.Empty(t, objects)

	objects, err = tpl.Parse("", ReadOptions{})
	require.NoError(t, err)
	assert.Empty(t, objects)
}

func TestParseMissingCells(t *testing.T) {
	tpl := fieldTemplate(t)

	objects, err := tpl.Parse("# comment\nname;extra\nMatt;1\nNathan\n", ReadOptions{Comma: ';', Comment: '#'})
	require.NoError(t, err)

	want := []interface{}{
		map[string]interface{}{"name": "Matt", "dob": nil},
		map[string]interface{}{"name": "Nathan", "dob": nil},
	}

	if diff := cmp.Diff(want, objects); diff != "" {
		t.Errorf("parsed objects mismatch (-want +got):\n%s", diff)
	}
}

type address struct {
	City string
}

type person struct {
	ID      int
	Name    string `csv:"name"`
	Address *address
	Tags    []string
	Born    time.Time
}

var personColumns = []interface{}{
	map[string]interface{}{"ID": map[string]interface{}{"property": "id", "to_object": "integer"}},
	"name",
	map[string]interface{}{"City": map[string]interface{}{"property": "city", "through": "address"}},
	map[string]interface{}{"Tags": map[string]interface{}{
		"property":  "tags",
		"to_csv":    map[string]interface{}{"type": "join", "separator": ";"},
		"to_object": map[string]interface{}{"type": "split", "separator": ";", "per": "string"},
	}},
	map[string]interface{}{"Born": map[string]interface{}{"property": "born", "to_object": "date"}},
}

func TestTemplateStructs(t *testing.T) {
	tpl, err := NewTemplate(
		WithColumns(personColumns...),
		WithObject(func() interface{} { return &person{} }),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"ID", "name", "City", "Tags", "Born"}, tpl.Headers())

	matt := &person{
		ID:      1,
		Name:    "Matt",
		Address: &address{City: "Paris"},
		Tags:    []string{"a", "b"},
		Born:    time.Date(1901, 1, 3, 0, 0, 0, 0, time.UTC),
	}

	text, err := tpl.Generate([]*person{matt}, WriteOptions{})
	require.NoError(t, err)
	assert.Equal(t, "ID,name,City,Tags,Born\n1,Matt,Paris,a;b,1901-01-03\n", text)

	objects, err := tpl.Parse(text, ReadOptions{})
	require.NoError(t, err)

	if diff := cmp.Diff([]interface{}{matt}, objects); diff != "" {
		t.Errorf("parsed objects mismatch (-want +got):\n%s", diff)
	}
}

func TestTemplateErrors(t *testing.T) {
	tpl, err := NewTemplate(WithColumns(map[string]interface{}{
		"Born": map[string]interface{}{"property": "born", "to_object": "date"},
	}))
	require.NoError(t, err)

	_, err = tpl.Parse("Born\n1901-01-03\nyesterday\n", ReadOptions{})
	assert.True(t, errors.Is(err, ErrConversion))
	assert.Contains(t, err.Error(), "row 2")
	assert.Contains(t, err.Error(), "column 'Born'")

	_, err = NewTemplate(WithColumns(""))
	assert.True(t, errors.Is(err, ErrConfiguration))

	_, err = NewTemplate(WithObject(nil))
	assert.True(t, errors.Is(err, ErrConfiguration))

	_, err = tpl.Parse("a,b\n\"unterminated\n", ReadOptions{})
	assert.Error(t, err)
}

func TestTemplateObjectFactory(t *testing.T) {
	_, err := NewTemplate(WithObject(func() interface{} { return person{} }))
	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.Contains(t, err.Error(), "pointer")

	_, err = NewTemplate(WithObject(func() interface{} { return 12 }))
	assert.True(t, errors.Is(err, ErrConfiguration))

	tpl, err := NewTemplate(
		WithObject(func() interface{} { return &person{} }),
		WithColumns(map[string]interface{}{"Name": map[string]interface{}{"property": "name"}}),
	)
	require.NoError(t, err)

	objects, err := tpl.Parse("Name\nAda\n", ReadOptions{})
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "Ada", objects[0].(*person).Name)
}

func TestTemplateExtend(t *testing.T) {
	base, err := NewTemplate(WithColumns("id", "name"))
	require.NoError(t, err)

	derived, err := base.Extend(WithColumns(
		map[string]interface{}{"name": map[string]interface{}{"property": "full_name"}},
		"email",
	))
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name"}, base.Headers())
	assert.Equal(t, []string{"id", "name", "email"}, derived.Headers())
	assert.Equal(t, "full_name", derived.Columns()[1].Property())
	assert.Equal(t, "name", base.Columns()[1].Property())

	sub, err := derived.Subset("email", "id")
	require.NoError(t, err)
	assert.Equal(t, []string{"email", "id"}, sub.Headers())

	_, err = derived.Subset("missing")
	assert.True(t, errors.Is(err, ErrConfiguration))
}

type account struct {
	ID    int    `csv:"id"`
	Email string `csv:"email"`
	Notes string `csv:"-"`
}

func TestColumnsOf(t *testing.T) {
	cols, err := ColumnsOf(&account{})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"id", "email"}, cols)

	tpl, err := NewTemplate(WithColumns(cols...))
	require.NoError(t, err)

	text, err := tpl.Generate([]account{{ID: 7, Email: "matt@example.com", Notes: "hidden"}}, WriteOptions{})
	require.NoError(t, err)
	assert.Equal(t, "id,email\n7,matt@example.com\n", text)

	_, err = ColumnsOf(12)
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestTemplateLogging(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	tpl, err := NewTemplate(WithColumns("a"), WithLogger(logger))
	require.NoError(t, err)

	_, err = tpl.Generate([]interface{}{map[string]interface{}{"a": 1}}, WriteOptions{})
	require.NoError(t, err)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.DebugLevel, entry.Level)
	assert.Equal(t, 1, entry.Data["columns"])
	assert.Equal(t, 1, entry.Data["rows"])

	_, err = tpl.Parse(strings.Repeat("a\n", 3), ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, hook.LastEntry().Data["rows"])
}
