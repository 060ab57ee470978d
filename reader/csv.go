package reader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/vegasq/csvview/table"
)

var (
	// ErrEmptyInput is returned when a file has no header record
	ErrEmptyInput = errors.New("no columns to parse from file")

	// ErrInvalidEncoding is returned when the decoded input is not valid UTF-8
	ErrInvalidEncoding = errors.New("input is not valid UTF-8")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseError reports a file that could not be turned into a table.
type ParseError struct {
	File string
	Line int // 0 when unknown
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s: line %d: %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Options control delimited-text parsing.
type Options struct {
	// Delimiter separates fields. Zero selects tab for ".tsv" names and
	// comma otherwise.
	Delimiter rune

	// NullTokens are the cell spellings read as null. Nil selects
	// table.DefaultNullTokens; an empty non-nil slice disables null tokens.
	NullTokens []string
}

func (o Options) delimiter(name string) rune {
	if o.Delimiter != 0 {
		return o.Delimiter
	}
	if strings.EqualFold(filepath.Ext(name), ".tsv") {
		return '\t'
	}
	return ','
}

func (o Options) nulls() table.NullSet {
	if o.NullTokens == nil {
		return table.NewNullSet(table.DefaultNullTokens)
	}
	return table.NewNullSet(o.NullTokens)
}

// ParseCSV parses delimited text into a table. The first record is the
// header; every column type is inferred once from its cells.
func ParseCSV(name string, data []byte, opts Options) (*table.Table, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, &ParseError{File: name, Err: err}
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = opts.delimiter(name)
	r.FieldsPerRecord = 0

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ParseError{File: name, Err: ErrEmptyInput}
	}
	if err != nil {
		return nil, csvParseError(name, err)
	}

	names := table.UniqueNames(header)
	cells := make([][]string, len(names))
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvParseError(name, err)
		}
		for c, cell := range record {
			cells[c] = append(cells[c], cell)
		}
	}

	return buildTable(names, cells, opts.nulls())
}

// buildTable infers column types and converts column-major cells into rows.
func buildTable(names []string, cells [][]string, nulls table.NullSet) (*table.Table, error) {
	cols := make([]table.Column, len(names))
	for c, name := range names {
		cols[c] = table.Column{Name: name, Type: table.InferType(cells[c], nulls)}
	}

	numRows := 0
	if len(cells) > 0 {
		numRows = len(cells[0])
	}

	rows := make([][]interface{}, numRows)
	for r := range rows {
		row := make([]interface{}, len(cols))
		for c := range cols {
			row[c] = table.ParseCell(cells[c][r], cols[c].Type, nulls)
		}
		rows[r] = row
	}

	return table.New(cols, rows)
}

func csvParseError(name string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		line := pe.StartLine
		if line == 0 {
			line = pe.Line
		}
		return &ParseError{File: name, Line: line, Err: pe.Err}
	}
	return &ParseError{File: name, Err: err}
}

// decodeText strips a UTF-8 byte order mark, transcodes BOM-marked UTF-16
// to UTF-8 and rejects anything that is still not valid UTF-8.
func decodeText(data []byte) ([]byte, error) {
	if bytes.HasPrefix(data, utf8BOM) {
		data = data[len(utf8BOM):]
	} else if isUTF16(data) {
		decoded, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), data)
		if err != nil {
			return nil, fmt.Errorf("decode UTF-16: %w", err)
		}
		data = decoded
	}

	if !utf8.Valid(data) {
		return nil, ErrInvalidEncoding
	}
	return data, nil
}

func isUTF16(data []byte) bool {
	return len(data) >= 2 && ((data[0] == 0xFE && data[1] == 0xFF) || (data[0] == 0xFF && data[1] == 0xFE))
}
