package reader

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/vegasq/csvview/table"
)

var parquetMagic = []byte("PAR1")

// Reader reads parquet content into tables.
type Reader struct {
	pqFile *parquet.File
}

// NewBytesReader opens parquet content held in memory, such as an upload.
func NewBytesReader(data []byte) (*Reader, error) {
	pqFile, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	return &Reader{pqFile: pqFile}, nil
}

// Columns maps the top-level parquet fields onto table columns.
func (r *Reader) Columns() []table.Column {
	return schemaColumns(r.pqFile.Schema())
}

// ReadTable reads every row of the file into a table whose columns follow
// the file schema order. Column types come from the schema and widen to
// text if a value does not fit.
func (r *Reader) ReadTable() (*table.Table, error) {
	schema := r.pqFile.Schema()
	cols := schemaColumns(schema)
	fields := schema.Fields()

	pr := parquet.NewReader(r.pqFile)
	defer func() { _ = pr.Close() }()

	var rows [][]interface{}
	for {
		record := make(map[string]interface{})
		err := pr.Read(&record)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		rows = append(rows, rowValues(fields, record))
	}

	return table.Infer(cols, rows)
}

// ParseParquet decodes parquet content into a table.
func ParseParquet(name string, data []byte) (*table.Table, error) {
	r, err := NewBytesReader(data)
	if err != nil {
		return nil, &ParseError{File: name, Err: err}
	}

	t, err := r.ReadTable()
	if err != nil {
		return nil, &ParseError{File: name, Err: err}
	}
	return t, nil
}

func isParquet(data []byte) bool {
	return len(data) >= 8 && bytes.HasPrefix(data, parquetMagic) && bytes.HasSuffix(data, parquetMagic)
}
