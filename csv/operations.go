package csv

import (
	"github.com/pkg/errors"
)

// OpFunc runs an operation over the parsed objects and returns its output.
// Operations writing CSV use opts.
type OpFunc func(t *Template, opts WriteOptions, objects []interface{}, args FuncArgs) ([]interface{}, error)

var operations = map[string]Operation{}

// AddOperations registers operations by name
func AddOperations(newOps ...Operation) error {
	for _, op := range newOps {
		if op.Name == "" {
			return errors.New("operation's name cannot be empty")
		}

		if _, ok := operations[op.Name]; ok {
			return errors.Errorf("operation '%s' already exists", op.Name)
		}

		operations[op.Name] = op
	}
	return nil
}

// OperationConf is an operation as defined in the loaded configuration.
//
// Operations run on the parsed objects unless FromState names an earlier
// operation whose output was kept with KeepState.
type OperationConf struct {
	Name      string `yaml:"name"`
	Operation string `yaml:"operation"`

	KeepState bool   `yaml:"keepState"`
	FromState string `yaml:"fromState"`

	Args map[string]OpArg `yaml:"args"`
}

type OpState struct {
	Objects []interface{}
}

type Operation struct {
	Name   string
	OpFunc OpFunc
	ArgDef ArgDef
}

func (op *Operation) Execute(t *Template, opts WriteOptions, objects []interface{}, args FuncArgs) ([]interface{}, error) {
	return op.OpFunc(t, opts, objects, args)
}

// RunOperations runs ops in order over objects parsed with t. Operations
// writing CSV use opts, usually the write section of the configuration.
func RunOperations(t *Template, opts WriteOptions, objects []interface{}, ops []*OperationConf) error {
	originalState := &OpState{Objects: objects}
	states := map[string]*OpState{}

	for opi, op := range ops {
		if opi == 0 {
			states[op.Name] = originalState
		}

		state := originalState

		operation, ok := operations[op.Operation]
		if !ok {
			return errors.Errorf("operation '%s' does not exist for '%s'", op.Operation, op.Name)
		}

		var opFuncArgs = FuncArgs{}

		for argName, arg := range op.Args {
			argDef, ok := operation.ArgDef[argName]
			if !ok {
				return errors.Errorf("unexpected argument '%s' in operation '%s' named '%s'", argName, op.Operation, op.Name)
			}

			argVal, err := parseOpArg(argDef, arg)
			if err != nil {
				return errors.Wrapf(err, "error parsing argument '%s' in operation '%s' named '%s'", argName, op.Operation, op.Name)
			}

			opFuncArgs[argName] = argVal
		}

		if op.FromState != "" {
			state, ok = states[op.FromState]
			if !ok {
				return errors.Errorf("state '%s' does not exist or was never kept", op.FromState)
			}
		}

		out, err := operation.Execute(t, opts, state.Objects, opFuncArgs)
		if err != nil {
			return errors.Wrapf(err, "error running operation '%s' named '%s'", op.Operation, op.Name)
		}

		if op.KeepState {
			states[op.Name] = &OpState{Objects: out}
		}
	}

	return nil
}
