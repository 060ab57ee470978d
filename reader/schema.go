package reader

import (
	"github.com/parquet-go/parquet-go"

	"github.com/vegasq/csvview/table"
)

// schemaColumns returns one column per top-level field, in schema order.
// Nested groups and repeated fields become text columns.
func schemaColumns(schema *parquet.Schema) []table.Column {
	fields := schema.Fields()
	names := make([]string, len(fields))
	for i, field := range fields {
		names[i] = field.Name()
	}
	names = table.UniqueNames(names)

	cols := make([]table.Column, len(fields))
	for i, field := range fields {
		cols[i] = table.Column{Name: names[i], Type: columnType(field)}
	}
	return cols
}

// rowValues orders a decoded record by fields. Records are keyed by the
// names stored in the file, which differ from the column names when
// schemaColumns had to rename a blank or repeated field.
func rowValues(fields []parquet.Field, record map[string]interface{}) []interface{} {
	row := make([]interface{}, len(fields))
	for i, field := range fields {
		row[i] = record[field.Name()]
	}
	return row
}

// columnType maps a parquet field onto a table column type.
func columnType(field parquet.Field) table.Type {
	if field.Type() == nil || len(field.Fields()) > 0 || field.Repeated() {
		return table.TypeText
	}

	if lt := field.Type().LogicalType(); lt != nil {
		switch {
		case lt.UTF8 != nil, lt.Enum != nil, lt.UUID != nil, lt.Json != nil:
			return table.TypeText
		}
	}

	switch field.Type().Kind() {
	case parquet.Boolean:
		return table.TypeBool
	case parquet.Int32, parquet.Int64:
		return table.TypeInteger
	case parquet.Float, parquet.Double:
		return table.TypeFloat
	default:
		return table.TypeText
	}
}
