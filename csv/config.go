package csv

import (
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/nicored/csv-template/convert"
)

// Config is a template defined in a YAML document:
//
//	scripts: [domain.js]
//	columns:
//	  - ID #: {property: id, to_object: integer}
//	  - {field: name}
//	write: {comma: ';', force_quotes: true}
//	read: {comma: ';'}
//	operations:
//	  - {name: out, operation: print}
type Config struct {
	// Scripts are javascript files registered as functions by file name
	Scripts    []string         `yaml:"scripts"`
	Columns    ColumnSpecs      `yaml:"columns"`
	Write      WriteOptions     `yaml:"write"`
	Read       ReadOptions      `yaml:"read"`
	Operations []*OperationConf `yaml:"operations"`
}

// ColumnSpecs holds column definitions in any shape ColumnSet.Add accepts,
// keeping the order of YAML mappings
type ColumnSpecs []interface{}

// UnmarshalYAML implements yaml.Unmarshaler
func (s *ColumnSpecs) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}

	if _, ok := raw.([]interface{}); !ok {
		var m yaml.MapSlice
		if err := unmarshal(&m); err != nil {
			return errors.Wrap(err, "columns must be a mapping or a list")
		}

		*s = ColumnSpecs{m}
		return nil
	}

	var items []columnSpec
	if err := unmarshal(&items); err != nil {
		return errors.Wrap(err, "columns must be a mapping or a list")
	}

	out := make(ColumnSpecs, len(items))
	for i, item := range items {
		out[i] = item.value
	}

	*s = out
	return nil
}

type columnSpec struct {
	value interface{}
}

func (s *columnSpec) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var str string
	if err := unmarshal(&str); err == nil {
		s.value = str
		return nil
	}

	var m yaml.MapSlice
	if err := unmarshal(&m); err != nil {
		return errors.Wrap(err, "column must be a header or a mapping")
	}

	s.value = m
	return nil
}

// ParseConfig parses a YAML configuration
func ParseConfig(data []byte) (*Config, error) {
	conf := &Config{}
	if err := yaml.Unmarshal(data, conf); err != nil {
		return nil, errors.Wrapf(ErrConfiguration, "%s", err)
	}

	return conf, nil
}

// LoadConfig reads and parses a YAML configuration file
func LoadConfig(filename string) (*Config, error) {
	content, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	conf, err := ParseConfig(content)
	if err != nil {
		return nil, errors.Wrapf(err, "error in '%s'", filename)
	}

	return conf, nil
}

// ImportScripts registers the configured javascript files as functions
func (c *Config) ImportScripts() error {
	for _, jsFilepath := range c.Scripts {
		fn, err := convert.NewJSFunction(jsFilepath)
		if err != nil {
			return err
		}

		if err = convert.AddFunctions(fn); err != nil {
			return err
		}
	}

	return nil
}

// Template imports the scripts and builds the configured template. opts
// are applied after the configured columns.
func (c *Config) Template(opts ...TemplateOption) (*Template, error) {
	if err := c.ImportScripts(); err != nil {
		return nil, err
	}

	return NewTemplate(append([]TemplateOption{WithColumns(c.Columns...)}, opts...)...)
}
