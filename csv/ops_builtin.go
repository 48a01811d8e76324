package csv

import (
	"io"
	"os"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// stdout receives the output of the print operation
var stdout io.Writer = os.Stdout

func init() {
	err := AddOperations(
		printOperation,
		toFileOperation,
		sortOperation,
		mergeDupesOp,
	)
	if err != nil {
		panic(err)
	}
}

var printOperation = Operation{
	Name:   "print",
	OpFunc: opPrint,
	ArgDef: ArgDef{"headers": reflect.TypeOf([]string{})},
}

// opPrint writes the objects as CSV to stdout, restricted to the given
// headers when provided
func opPrint(t *Template, opts WriteOptions, objects []interface{}, args FuncArgs) ([]interface{}, error) {
	out, err := subset(t, args)
	if err != nil {
		return nil, err
	}

	if err := out.GenerateTo(stdout, objects, opts); err != nil {
		return nil, err
	}

	return objects, nil
}

var toFileOperation = Operation{
	Name:   "toFile",
	OpFunc: opToFile,
	ArgDef: ArgDef{"filename": reflect.TypeOf(""), "headers": reflect.TypeOf([]string{})},
}

func opToFile(t *Template, opts WriteOptions, objects []interface{}, args FuncArgs) ([]interface{}, error) {
	fileName, err := argString(args, "filename")
	if err != nil {
		return nil, err
	}

	out, err := subset(t, args)
	if err != nil {
		return nil, err
	}

	wf, err := os.Create(fileName)
	if err != nil {
		return nil, err
	}
	defer wf.Close()

	if err := out.GenerateTo(wf, objects, opts); err != nil {
		return nil, err
	}

	return objects, wf.Close()
}

var sortOperation = Operation{
	Name:   "sort",
	OpFunc: opSort,
	ArgDef: ArgDef{"headers": reflect.TypeOf([]string{}), "order": reflect.TypeOf([]string{})},
}

// opSort sorts the objects by the cells under headers. Cells are compared
// as numbers when both parse as numbers.
func opSort(t *Template, _ WriteOptions, objects []interface{}, args FuncArgs) ([]interface{}, error) {
	headers, err := argSliceString(args, "headers")
	if err != nil {
		return nil, err
	}

	if len(headers) == 0 {
		return nil, errors.New("'headers' argument not provided")
	}

	order, err := argSliceString(args, "order")
	if err != nil {
		return nil, err
	}

	if order == nil {
		order = make([]string, len(headers))
	}

	if len(order) != len(headers) {
		return nil, errors.New("number of items in 'order' must be equal to number of items in 'headers'")
	}

	cells, err := cellsOf(t, objects, headers)
	if err != nil {
		return nil, err
	}

	idx := make([]int, len(objects))
	for i := range idx {
		idx[i] = i
	}

	sort.SliceStable(idx, func(i, j int) bool {
		for hi := range headers {
			c := compareCells(cells[idx[i]][hi], cells[idx[j]][hi])
			if c == 0 {
				continue
			}

			if strings.EqualFold(order[hi], "desc") {
				return c > 0
			}

			return c < 0
		}

		return false
	})

	sorted := make([]interface{}, len(objects))
	for i, oi := range idx {
		sorted[i] = objects[oi]
	}

	return sorted, nil
}

var mergeDupesOp = Operation{
	Name:   "mergeDupes",
	OpFunc: opMergeDupes,
	ArgDef: ArgDef{
		"indexHeaders": reflect.TypeOf([]string{}),
		"mergeValues":  reflect.TypeOf(true),
	},
}

// opMergeDupes keeps one object per distinct value of the index headers.
// With mergeValues, empty cells of the first object are filled from the
// later duplicates.
func opMergeDupes(t *Template, _ WriteOptions, objects []interface{}, args FuncArgs) ([]interface{}, error) {
	indexHeaders, err := argSliceString(args, "indexHeaders")
	if err != nil {
		return nil, err
	}

	if len(indexHeaders) == 0 {
		return nil, errors.New("'indexHeaders' argument not provided")
	}

	mergeValues, err := argBool(args, "mergeValues")
	if err != nil {
		return nil, err
	}

	headers := t.Headers()
	index, err := cellsOf(t, objects, indexHeaders)
	if err != nil {
		return nil, err
	}

	all, err := cellsOf(t, objects, headers)
	if err != nil {
		return nil, err
	}

	// building the indexes and mapping them to their respective objects,
	// in order of first appearance
	var keys []string
	groups := map[string][]int{}

	for i, cells := range index {
		key := strings.Join(cells, "\x00")

		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}

		groups[key] = append(groups[key], i)
	}

	out := make([]interface{}, 0, len(keys))

	for _, key := range keys {
		grp := groups[key]

		if !mergeValues || len(grp) == 1 {
			out = append(out, objects[grp[0]])
			continue
		}

		row := Row{}
		for hi, h := range headers {
			for gi, oi := range grp {
				val := all[oi][hi]

				if val == "" && gi < len(grp)-1 {
					continue
				}

				row[h] = val
				break
			}
		}

		obj, err := t.Object(row)
		if err != nil {
			return nil, err
		}

		out = append(out, obj)
	}

	return out, nil
}

func subset(t *Template, args FuncArgs) (*Template, error) {
	headers, err := argSliceString(args, "headers")
	if err != nil {
		return nil, err
	}

	if len(headers) == 0 {
		return t, nil
	}

	return t.Subset(headers...)
}

// cellsOf returns, for each object, its formatted cells under headers
func cellsOf(t *Template, objects []interface{}, headers []string) ([][]string, error) {
	for _, h := range headers {
		if _, ok := t.columns.Get(h); !ok {
			return nil, errors.Errorf("column '%s' does not exist", h)
		}
	}

	out := make([][]string, len(objects))

	for i, obj := range objects {
		row, err := t.Row(obj)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i+1)
		}

		out[i] = make([]string, len(headers))
		for hi, h := range headers {
			out[i][hi] = t.cell(h, row[h])
		}
	}

	return out, nil
}

func compareCells(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)

	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}

		return 0
	}

	return strings.Compare(a, b)
}
