// Package csv maps CSV rows to objects and objects to CSV rows through a
// declarative set of columns.
package csv

import (
	"bufio"
	"bytes"
	gocsv "encoding/csv"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/nicored/csv-template/convert"
)

// bom is the UTF-8 byte order mark, added by Excel to exported files
const bom = "\xef\xbb\xbf"

// Errors wrapped by column, template and conversion failures, see convert
var (
	ErrConfiguration = convert.ErrConfiguration
	ErrConversion    = convert.ErrConversion
)

// Row is the list of cell values mapped by header
type Row map[string]interface{}

// Get returns the cell under header
func (r Row) Get(header string) (interface{}, bool) {
	v, ok := r[header]
	return v, ok
}

// Delimiter is a single character option, written as a one character
// string in configurations
type Delimiter rune

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Delimiter) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}

	if utf8.RuneCountInString(s) != 1 {
		return errors.Wrapf(ErrConfiguration, "'%s' must be a single character", s)
	}

	r, _ := utf8.DecodeRuneInString(s)
	*d = Delimiter(r)
	return nil
}

// WriteOptions controls how generated rows are framed
type WriteOptions struct {
	// Comma is the field delimiter, ',' by default
	Comma Delimiter `yaml:"comma"`
	// Quote is the quote character, '"' by default
	Quote Delimiter `yaml:"quote"`
	// ForceQuotes quotes every field, headers included
	ForceQuotes bool `yaml:"force_quotes"`
	// UseCRLF ends lines with \r\n
	UseCRLF bool `yaml:"crlf"`
	// BOM prefixes the output with the UTF-8 byte order mark
	BOM bool `yaml:"bom"`
}

// ReadOptions controls how text is split into rows
type ReadOptions struct {
	Comma            Delimiter `yaml:"comma"`
	Comment          Delimiter `yaml:"comment"`
	LazyQuotes       bool      `yaml:"lazy_quotes"`
	TrimLeadingSpace bool      `yaml:"trim_leading_space"`
}

func (o WriteOptions) comma() rune {
	if o.Comma == 0 {
		return ','
	}

	return rune(o.Comma)
}

func (o WriteOptions) quote() rune {
	if o.Quote == 0 {
		return '"'
	}

	return rune(o.Quote)
}

// write frames the header and records into w
func (o WriteOptions) write(w io.Writer, header []string, records [][]string) error {
	if o.BOM {
		if _, err := io.WriteString(w, bom); err != nil {
			return err
		}
	}

	if !o.ForceQuotes && o.quote() == '"' {
		csvW := gocsv.NewWriter(w)
		csvW.Comma = o.comma()
		csvW.UseCRLF = o.UseCRLF

		if err := csvW.Write(header); err != nil {
			return err
		}

		return csvW.WriteAll(records)
	}

	bw := bufio.NewWriter(w)

	if err := o.writeQuoted(bw, header); err != nil {
		return err
	}

	for _, rec := range records {
		if err := o.writeQuoted(bw, rec); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// writeQuoted writes a record with a custom quote character, or with every
// field quoted, neither being supported by encoding/csv
func (o WriteOptions) writeQuoted(w *bufio.Writer, record []string) error {
	comma, quote := o.comma(), o.quote()
	q := string(quote)

	for i, field := range record {
		if i > 0 {
			if _, err := w.WriteRune(comma); err != nil {
				return err
			}
		}

		if !o.ForceQuotes && !o.needsQuotes(field) {
			if _, err := w.WriteString(field); err != nil {
				return err
			}

			continue
		}

		if _, err := w.WriteString(q + strings.ReplaceAll(field, q, q+q) + q); err != nil {
			return err
		}
	}

	eol := "\n"
	if o.UseCRLF {
		eol = "\r\n"
	}

	_, err := w.WriteString(eol)
	return err
}

func (o WriteOptions) needsQuotes(field string) bool {
	if field == "" {
		return false
	}

	return field[0] == ' ' || strings.ContainsRune(field, o.comma()) || strings.ContainsRune(field, o.quote()) ||
		strings.ContainsAny(field, "\r\n")
}

// read splits r into rows keyed by the header found on the first record.
// A leading byte order mark is discarded.
func (o ReadOptions) read(r io.Reader) ([]Row, error) {
	// Checking and removing UTF-8 byte order marks
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(bom)); err == nil && bytes.Equal(b, []byte(bom)) {
		if _, err := br.Discard(len(bom)); err != nil {
			return nil, err
		}
	}

	csvR := gocsv.NewReader(br)
	csvR.FieldsPerRecord = -1
	csvR.LazyQuotes = o.LazyQuotes
	csvR.TrimLeadingSpace = o.TrimLeadingSpace
	if o.Comma != 0 {
		csvR.Comma = rune(o.Comma)
	}
	if o.Comment != 0 {
		csvR.Comment = rune(o.Comment)
	}

	var header []string
	var rows []Row

	for {
		rec, err := csvR.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if header == nil {
			header = rec
			continue
		}

		row := Row{}
		for i, h := range header {
			if i >= len(rec) {
				break
			}

			// the first of duplicated headers wins
			if _, ok := row[h]; !ok {
				row[h] = rec[i]
			}
		}

		rows = append(rows, row)
	}

	return rows, nil
}
