package object

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

type license struct {
	ID string
}

type address struct {
	Street string `csv:"street_1"`
	Zip    *int
}

type person struct {
	Name      string
	DOB       string `csv:"dob"`
	License   *license
	Address   address
	Tags      []string
	Extra     map[string]interface{}
	Anything  interface{}
	lowercase string
}

func (p *person) Greeting() string {
	return "hello " + p.Name
}

type shouty struct {
	Name string
}

func (s *shouty) SetName(v string) {
	s.Name = strings.ToUpper(v)
}

type failing struct {
	Age int
}

func (f *failing) SetAge(v int) error {
	if v < 0 {
		return errors.New("negative age")
	}

	f.Age = v
	return nil
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil))
	assert.Nil(t, Wrap("nope"))
	assert.Nil(t, Wrap((*person)(nil)))

	assert.IsType(t, &MapContainer{}, Wrap(map[string]interface{}{}))
	assert.IsType(t, &MapContainer{}, Wrap(&map[string]string{}))
	assert.IsType(t, &AttributeContainer{}, Wrap(&person{}))
	assert.IsType(t, &AttributeContainer{}, Wrap(person{}))
}

func TestMapGetIndifferent(t *testing.T) {
	type header string

	m := map[interface{}]interface{}{
		"name": "Matt",
		12:     "twelve",
	}

	v, ok := Get(m, "name")
	assert.True(t, ok)
	assert.Equal(t, "Matt", v)

	v, ok = Get(m, "12")
	assert.True(t, ok)
	assert.Equal(t, "twelve", v)

	_, ok = Get(m, "missing")
	assert.False(t, ok)

	typed := map[header]int{"id": 3}
	v, ok = Get(typed, "id")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestMapSet(t *testing.T) {
	m := map[string]interface{}{}
	require.NoError(t, Set(m, "name", "Nathan"))
	assert.Equal(t, "Nathan", m["name"])

	ints := map[string]int64{}
	require.NoError(t, Set(ints, "n", 4))
	assert.Equal(t, int64(4), ints["n"])

	err := Set(ints, "n", "four")
	assert.True(t, errors.Is(err, ErrIncompatible))

	keyed := map[interface{}]interface{}{1: "one"}
	require.NoError(t, Set(keyed, "1", "uno"))
	assert.Len(t, keyed, 1)
	assert.Equal(t, "uno", keyed[1])

	var nilMap map[string]string
	require.NoError(t, Set(&nilMap, "a", "b"))
	assert.Equal(t, "b", nilMap["a"])
}

func TestSetOnNonContainerIsNoop(t *testing.T) {
	assert.NoError(t, Set(42, "key", "value"))
	assert.NoError(t, Set(nil, "key", "value"))
}

func TestAttributeGet(t *testing.T) {
	p := &person{
		Name:      "Mattycakes",
		DOB:       "1921-01-02",
		License:   &license{ID: "123456"},
		lowercase: "hidden",
	}

	v, ok := Get(p, "Name")
	assert.True(t, ok)
	assert.Equal(t, "Mattycakes", v)

	v, ok = Get(p, "name")
	assert.True(t, ok)
	assert.Equal(t, "Mattycakes", v)

	v, ok = Get(p, "dob")
	assert.True(t, ok)
	assert.Equal(t, "1921-01-02", v)

	v, ok = Get(p, "greeting")
	assert.True(t, ok)
	assert.Equal(t, "hello Mattycakes", v)

	_, ok = Get(p, "lowercase")
	assert.False(t, ok)

	_, ok = Get(p, "doesnt_exist")
	assert.False(t, ok)
}

func TestAttributeSet(t *testing.T) {
	p := &person{}

	require.NoError(t, Set(p, "name", "Nathan"))
	require.NoError(t, Set(p, "tags", []interface{}{"a", "b"}))
	require.NoError(t, Set(p, "unknown", "ignored"))

	assert.Equal(t, "Nathan", p.Name)
	assert.Equal(t, []string{"a", "b"}, p.Tags)

	require.NoError(t, Set(p, "name", nil))
	assert.Equal(t, "", p.Name)

	s := &shouty{}
	require.NoError(t, Set(s, "name", "quiet"))
	assert.Equal(t, "QUIET", s.Name)

	f := &failing{}
	assert.EqualError(t, Set(f, "age", -1), "negative age")
	require.NoError(t, Set(f, "age", 30))
	assert.Equal(t, 30, f.Age)
}

func TestTraverse(t *testing.T) {
	hash := map[string]interface{}{
		"name":    "Mattycakes",
		"license": map[string]interface{}{"id": "123456"},
	}
	obj := &person{Name: "Mattycakes", License: &license{ID: "123456"}}

	for _, v := range []interface{}{hash, obj} {
		assert.Equal(t, "123456", Traverse(v, []string{"license", "id"}))
		assert.Nil(t, Traverse(v, []string{"something", "that", "does", "not", "exist"}))
		assert.Nil(t, Traverse(v, []string{"license", "doesnt_exist", "here"}))
		assert.Equal(t, v, Traverse(v, nil))
	}

	assert.Nil(t, Traverse(&person{}, []string{"license", "id"}))
}

func TestBuildMap(t *testing.T) {
	m := map[string]interface{}{}

	c, err := Build(m, []string{"demo", "address"})
	require.NoError(t, err)
	require.NoError(t, c.Set("city", "Chicago"))

	assert.Equal(t, map[string]interface{}{
		"demo": map[string]interface{}{
			"address": map[string]interface{}{"city": "Chicago"},
		},
	}, m)

	// existing intermediate containers are reused
	require.NoError(t, SetPath(m, []string{"demo", "address", "zip"}, "60601"))
	assert.Equal(t, "Chicago", Traverse(m, []string{"demo", "address", "city"}))
	assert.Equal(t, "60601", Traverse(m, []string{"demo", "address", "zip"}))
}

func TestBuildStruct(t *testing.T) {
	p := &person{}

	require.NoError(t, SetPath(p, []string{"license", "id"}, "42"))
	require.NoError(t, SetPath(p, []string{"address", "street_1"}, "1 Main St"))
	require.NoError(t, SetPath(p, []string{"address", "zip"}, 60601))
	require.NoError(t, SetPath(p, []string{"extra", "color"}, "blue"))
	require.NoError(t, SetPath(p, []string{"anything", "nested"}, true))

	require.NotNil(t, p.License)
	assert.Equal(t, "42", p.License.ID)
	assert.Equal(t, "1 Main St", p.Address.Street)
	require.NotNil(t, p.Address.Zip)
	assert.Equal(t, 60601, *p.Address.Zip)
	assert.Equal(t, "blue", p.Extra["color"])
	assert.Equal(t, map[string]interface{}{"nested": true}, p.Anything)
}

func TestBuildErrors(t *testing.T) {
	_, err := Build("text", []string{"a"})
	assert.True(t, errors.Is(err, ErrIncompatible))

	_, err = Build(&person{}, []string{"name", "first"})
	assert.True(t, errors.Is(err, ErrIncompatible))

	_, err = Build(map[string]interface{}{"name": "x"}, []string{"name", "first"})
	assert.True(t, errors.Is(err, ErrIncompatible))

	assert.Error(t, SetPath(map[string]interface{}{}, nil, "x"))
}

func TestEmpty(t *testing.T) {
	m := Wrap(map[string]int{"a": 1}).Empty()
	assert.Equal(t, map[string]int{}, m.Unwrap())

	p := Wrap(&person{Name: "x"}).Empty()
	assert.Equal(t, &person{}, p.Unwrap())
}

func TestNormalize(t *testing.T) {
	in := map[interface{}]interface{}{
		"a": []interface{}{map[interface{}]interface{}{1: "b"}},
	}

	assert.Equal(t, map[string]interface{}{
		"a": []interface{}{map[string]interface{}{"1": "b"}},
	}, Normalize(in))

	slice := yaml.MapSlice{
		{Key: "to_object", Value: yaml.MapSlice{{Key: "type", Value: "split"}}},
		{Key: 2, Value: []interface{}{yaml.MapSlice{{Key: "x", Value: 1}}}},
	}

	assert.Equal(t, map[string]interface{}{
		"to_object": map[string]interface{}{"type": "split"},
		"2":         []interface{}{map[string]interface{}{"x": 1}},
	}, Normalize(slice))
}
