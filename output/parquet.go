package output

import (
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/vegasq/csvview/table"
)

// ParquetFormatter writes tables as a parquet file
type ParquetFormatter struct {
	writer io.Writer
}

// NewParquetFormatter creates a new parquet formatter
func NewParquetFormatter(w io.Writer) *ParquetFormatter {
	return &ParquetFormatter{writer: w}
}

// SetOutput sets the output writer
func (p *ParquetFormatter) SetOutput(w io.Writer) {
	p.writer = w
}

// Format writes the table as parquet. Every column is optional so nulls
// survive the round trip. parquet-go orders the fields of a group by name,
// so the file lists columns alphabetically.
func (p *ParquetFormatter) Format(t *table.Table) error {
	schema := parquetSchema(t.Columns())

	// Leaf index of each table column within the schema
	leaves := make([]int, t.NumColumns())
	for i, field := range schema.Fields() {
		_, c, _ := t.Lookup(field.Name())
		leaves[c] = i
	}

	writer := parquet.NewWriter(p.writer, schema)
	rows := make([]parquet.Row, t.NumRows())
	for r := range rows {
		row := make(parquet.Row, t.NumColumns())
		for c := 0; c < t.NumColumns(); c++ {
			row[leaves[c]] = parquetValue(t.Value(r, c)).Level(0, definitionLevel(t.Value(r, c)), leaves[c])
		}
		rows[r] = row
	}

	if _, err := writer.WriteRows(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

func parquetSchema(columns []table.Column) *parquet.Schema {
	group := make(parquet.Group, len(columns))
	for _, col := range columns {
		var node parquet.Node
		switch col.Type {
		case table.TypeInteger:
			node = parquet.Leaf(parquet.Int64Type)
		case table.TypeFloat:
			node = parquet.Leaf(parquet.DoubleType)
		case table.TypeBool:
			node = parquet.Leaf(parquet.BooleanType)
		default:
			node = parquet.String()
		}
		group[col.Name] = parquet.Optional(node)
	}
	return parquet.NewSchema("csvview", group)
}

func parquetValue(v interface{}) parquet.Value {
	switch val := v.(type) {
	case int64:
		return parquet.Int64Value(val)
	case float64:
		return parquet.DoubleValue(val)
	case bool:
		return parquet.BooleanValue(val)
	case string:
		return parquet.ByteArrayValue([]byte(val))
	default:
		return parquet.NullValue()
	}
}

func definitionLevel(v interface{}) int {
	if v == nil {
		return 0
	}
	return 1
}
