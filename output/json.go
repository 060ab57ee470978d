package output

import (
	"bufio"
	"encoding/json"
	"io"
	"math"

	"github.com/vegasq/csvview/table"
)

// JSONLFormatter outputs tables as JSON Lines, one object per row
type JSONLFormatter struct {
	writer io.Writer
}

// NewJSONLFormatter creates a new JSON Lines formatter
func NewJSONLFormatter(w io.Writer) *JSONLFormatter {
	return &JSONLFormatter{writer: w}
}

// SetOutput sets the output writer
func (j *JSONLFormatter) SetOutput(w io.Writer) {
	j.writer = w
}

// Format writes each row as a JSON object on its own line
func (j *JSONLFormatter) Format(t *table.Table) error {
	bw := bufio.NewWriter(j.writer)
	for r := 0; r < t.NumRows(); r++ {
		if err := writeObject(bw, t, r); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// JSONFormatter outputs tables as a single JSON array of row objects
type JSONFormatter struct {
	writer io.Writer
}

// NewJSONFormatter creates a new JSON array formatter
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w}
}

// SetOutput sets the output writer
func (j *JSONFormatter) SetOutput(w io.Writer) {
	j.writer = w
}

// Format writes the rows as a JSON array. A zero-row table writes [].
func (j *JSONFormatter) Format(t *table.Table) error {
	bw := bufio.NewWriter(j.writer)
	if err := bw.WriteByte('['); err != nil {
		return err
	}
	for r := 0; r < t.NumRows(); r++ {
		if r > 0 {
			if err := bw.WriteByte(','); err != nil {
				return err
			}
		}
		if err := writeObject(bw, t, r); err != nil {
			return err
		}
	}
	if _, err := bw.WriteString("]\n"); err != nil {
		return err
	}
	return bw.Flush()
}

// writeObject writes row r as a JSON object whose keys follow the column
// order of the table.
func writeObject(w *bufio.Writer, t *table.Table, r int) error {
	if err := w.WriteByte('{'); err != nil {
		return err
	}
	for c, name := range t.ColumnNames() {
		if c > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		key, err := json.Marshal(name)
		if err != nil {
			return err
		}
		value, err := json.Marshal(jsonValue(t.Value(r, c)))
		if err != nil {
			return err
		}
		w.Write(key)
		w.WriteByte(':')
		w.Write(value)
	}
	return w.WriteByte('}')
}

// jsonValue maps cells JSON cannot represent: NaN and infinities become
// null.
func jsonValue(v interface{}) interface{} {
	if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return nil
	}
	return v
}

// Document is the column-oriented JSON shape of a table used by the HTTP
// API: the schema once, then rows as arrays in column order.
type Document struct {
	Columns []table.Column  `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
}

// NewDocument converts a table into a Document.
func NewDocument(t *table.Table) Document {
	rows := make([][]interface{}, t.NumRows())
	for r := range rows {
		row := t.Row(r)
		for c, v := range row {
			row[c] = jsonValue(v)
		}
		rows[r] = row
	}
	return Document{Columns: t.Columns(), Rows: rows}
}
