package convert

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/robertkrimen/otto"
)

// NamedFunc is a function converter that can be referenced by name from
// configurations
type NamedFunc interface {
	Converter
	Name() string
}

var (
	functionsMu sync.RWMutex

	// functions is a list of all available functions mapped by name
	functions = map[string]NamedFunc{}
)

// AddFunctions registers the given functions
func AddFunctions(list ...NamedFunc) error {
	functionsMu.Lock()
	defer functionsMu.Unlock()

	for _, fn := range list {
		name := strings.TrimSpace(fn.Name())

		if name == "" {
			return errors.Wrap(ErrConfiguration, "function's name cannot be empty")
		}

		if _, ok := functions[name]; ok {
			return errors.Wrapf(ErrConfiguration, "function with name '%s' already exists", name)
		}

		functions[name] = fn
	}

	return nil
}

// LookupFunction returns the registered function called name
func LookupFunction(name string) (Func, bool) {
	functionsMu.RLock()
	defer functionsMu.RUnlock()

	fn, ok := functions[strings.TrimSpace(name)]
	if !ok {
		return nil, false
	}

	return fn.Convert, true
}

// Function is a named Go function
type Function struct {
	name string
	fn   Func
}

// NewFunction names fn so that it can be registered
func NewFunction(name string, fn Func) *Function {
	return &Function{name: name, fn: fn}
}

// Name returns the name of the function
func (f *Function) Name() string {
	return f.name
}

// Convert runs the function
func (f *Function) Convert(value interface{}) (interface{}, error) {
	return f.fn(value)
}

// JSFunction is a function written in javascript. The script reads the
// input from the global 'value' and must assign its result to the global
// 'output'.
type JSFunction struct {
	name   string
	script string
}

// NewJSFunction creates a javascript function from a file, named after the
// file's base name
func NewJSFunction(filename string) (*JSFunction, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	// compiling only to report syntax errors early, every call runs in its own vm
	if _, err := otto.New().Compile(filename, src); err != nil {
		return nil, errors.Wrapf(ErrConfiguration, "js error in '%s': %s", filename, err)
	}

	return &JSFunction{
		name:   filepath.Base(filename),
		script: string(src),
	}, nil
}

// Name returns the name of the function
func (jf *JSFunction) Name() string {
	return jf.name
}

// Script returns the javascript source run by the function
func (jf *JSFunction) Script() string {
	return jf.script
}

// Convert runs the script against value
func (jf *JSFunction) Convert(value interface{}) (interface{}, error) {
	vm := otto.New()

	if err := vm.Set("value", value); err != nil {
		return nil, errors.Wrapf(ErrConversion, "cannot pass %T to '%s': %s", value, jf.name, err)
	}

	if _, err := vm.Run(jf.script); err != nil {
		return nil, errors.Wrapf(ErrConversion, "js error in '%s': %s", jf.name, err)
	}

	// We expect the variable 'output' in the js script to be defined and ready for extraction
	output, err := vm.Get("output")
	if err != nil {
		return nil, err
	}

	if output.IsUndefined() || output.IsNull() {
		return nil, nil
	}

	return output.Export()
}
