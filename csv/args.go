package csv

import (
	"reflect"
	"strconv"

	"github.com/pkg/errors"
)

// FuncArgs maps the arguments value by their name and is used
// when calling an OpFunc function
type FuncArgs map[string]interface{}

// OpArg is the argument of an operation as defined in the loaded
// configuration. Value holds single values, Values holds lists.
type OpArg struct {
	Value  string   `yaml:"value"`
	Values []string `yaml:"values"`
}

// ArgDef maps the argument name to its expected type from the operation
type ArgDef map[string]reflect.Type

// parseOpArg converts the configured argument to the type expected by the
// operation
func parseOpArg(def reflect.Type, arg OpArg) (interface{}, error) {
	switch def.Kind() {
	case reflect.Slice:
		if len(arg.Values) == 0 && arg.Value != "" {
			return []string{arg.Value}, nil
		}

		return arg.Values, nil
	case reflect.Bool:
		return strconv.ParseBool(arg.Value)
	case reflect.Int:
		return strconv.Atoi(arg.Value)
	}

	if len(arg.Values) > 0 {
		return nil, errors.New("expected a single value, not 'values'")
	}

	return arg.Value, nil
}

func argString(args FuncArgs, argName string) (string, error) {
	vI, ok := args[argName]
	if !ok {
		return "", errors.Errorf("'%s' argument not provided", argName)
	}

	vS, ok := vI.(string)
	if !ok {
		return "", errors.Errorf("'%s' must be a string", argName)
	}

	return vS, nil
}

func argBool(args FuncArgs, argName string) (bool, error) {
	vI, ok := args[argName]
	if !ok {
		return false, nil
	}

	vBool, ok := vI.(bool)
	if !ok {
		return false, errors.Errorf("'%s' must be a boolean", argName)
	}

	return vBool, nil
}

// argSliceString returns the list argument, or nil when it was not provided
func argSliceString(args FuncArgs, argName string) ([]string, error) {
	vI, ok := args[argName]
	if !ok {
		return nil, nil
	}

	vS, ok := vI.([]string)
	if !ok {
		return nil, errors.Errorf("'%s' must be a slice of strings", argName)
	}

	return vS, nil
}
