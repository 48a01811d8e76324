package csv

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestColumnSetOverride(t *testing.T) {
	cs, err := NewColumnSet("id", "name", "email")
	require.NoError(t, err)

	require.NoError(t, cs.Column("name", map[string]interface{}{"property": "full_name"}))
	require.NoError(t, cs.Add("phone"))

	assert.Equal(t, []string{"id", "name", "email", "phone"}, cs.Headers())
	assert.Equal(t, 4, cs.Len())

	c, ok := cs.Get("name")
	require.True(t, ok)
	assert.Equal(t, "full_name", c.Property())
}

func TestColumnSetShapes(t *testing.T) {
	name, err := NewColumn("Name", ColumnOptions{Property: "name"})
	require.NoError(t, err)

	base, err := NewColumnSet("base")
	require.NoError(t, err)

	cs, err := NewColumnSet(
		base,
		name,
		[]interface{}{"a", []string{"b", "c"}},
		yaml.MapSlice{
			{Key: "Zed", Value: nil},
			{Key: "Age", Value: yaml.MapSlice{{Key: "property", Value: "age"}}},
		},
		map[string]interface{}{"Y": nil, "X": nil},
		map[interface{}]interface{}{"field": "email"},
		12,
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"base", "Name", "a", "b", "c", "Zed", "Age", "X", "Y", "email", "12"}, cs.Headers())

	age, ok := cs.Get("Age")
	require.True(t, ok)
	assert.Equal(t, "age", age.Property())

	for i, c := range cs.Columns() {
		assert.Equal(t, cs.Headers()[i], c.Header())
	}
}

func TestColumnSetFieldDetection(t *testing.T) {
	// "field" among other keys is a header, not a field definition
	cs, err := NewColumnSet(map[string]interface{}{
		"field": nil,
		"other": nil,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"field", "other"}, cs.Headers())

	cs, err = NewColumnSet(yaml.MapSlice{
		{Key: "field", Value: []interface{}{"license", "id"}},
		{Key: "header", Value: "License"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"License"}, cs.Headers())
}

func TestColumnSetErrors(t *testing.T) {
	_, err := NewColumnSet("")
	assert.True(t, errors.Is(err, ErrConfiguration))

	_, err = NewColumnSet(map[string]interface{}{"Age": map[string]interface{}{"to_object": "nope"}})
	assert.True(t, errors.Is(err, ErrConfiguration))

	_, err = NewColumnSet(map[string]interface{}{"Age": "integer"})
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestColumnSetRejectsZeroColumns(t *testing.T) {
	_, err := NewColumnSet(&Column{})
	assert.True(t, errors.Is(err, ErrConfiguration))

	_, err = NewColumnSet(&Column{header: "name"})
	assert.True(t, errors.Is(err, ErrConfiguration))

	_, err = NewColumnSet((*Column)(nil))
	assert.True(t, errors.Is(err, ErrConfiguration))

	_, err = NewColumnSet(Column{})
	assert.True(t, errors.Is(err, ErrConfiguration))

	_, err = NewTemplate(WithColumns(Column{}))
	assert.True(t, errors.Is(err, ErrConfiguration))
}
