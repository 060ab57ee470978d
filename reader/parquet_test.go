package reader

import (
	"bytes"
	"errors"
	"testing"

	"github.com/parquet-go/parquet-go"

	"github.com/vegasq/csvview/table"
)

type personRow struct {
	ID     int64    `parquet:"id"`
	Name   string   `parquet:"name"`
	Age    *int32   `parquet:"age,optional"`
	Salary float64  `parquet:"salary"`
	Active bool     `parquet:"active"`
	Score  *float32 `parquet:"score,optional"`
}

func writeParquet(t *testing.T, rows []personRow) []byte {
	t.Helper()

	var buf bytes.Buffer
	writer := parquet.NewGenericWriter[personRow](&buf)
	if _, err := writer.Write(rows); err != nil {
		t.Fatalf("failed to write test data: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}
	return buf.Bytes()
}

func samplePeople() []personRow {
	age := int32(41)
	score := float32(0.5)
	return []personRow{
		{ID: 1, Name: "Alice", Age: &age, Salary: 100.5, Active: true, Score: &score},
		{ID: 2, Name: "Bob", Salary: 80, Active: false},
	}
}

func TestParseParquet(t *testing.T) {
	tbl, err := ParseParquet("people.parquet", writeParquet(t, samplePeople()))
	if err != nil {
		t.Fatalf("ParseParquet() error = %v", err)
	}

	if tbl.NumRows() != 2 {
		t.Fatalf("ParseParquet() returned %d rows, want 2", tbl.NumRows())
	}

	wantTypes := map[string]table.Type{
		"id":     table.TypeInteger,
		"name":   table.TypeText,
		"age":    table.TypeInteger,
		"salary": table.TypeFloat,
		"active": table.TypeBool,
		"score":  table.TypeFloat,
	}
	for _, col := range tbl.Columns() {
		if want, ok := wantTypes[col.Name]; !ok {
			t.Errorf("unexpected column %q", col.Name)
		} else if col.Type != want {
			t.Errorf("column %q type = %s, want %s", col.Name, col.Type, want)
		}
	}

	_, agePos, err := tbl.Column("age")
	if err != nil {
		t.Fatalf("Column(age) error = %v", err)
	}
	if got := tbl.Value(0, agePos); got != int64(41) {
		t.Errorf("age[0] = %#v, want int64(41)", got)
	}
	if got := tbl.Value(1, agePos); got != nil {
		t.Errorf("age[1] = %#v, want nil", got)
	}

	_, namePos, _ := tbl.Column("name")
	if got := tbl.Value(1, namePos); got != "Bob" {
		t.Errorf("name[1] = %#v, want Bob", got)
	}
}

func TestReadTable_RenamedField(t *testing.T) {
	schema := parquet.NewSchema("row", parquet.Group{
		"":  parquet.Int(64),
		"b": parquet.String(),
	})

	cols := schemaColumns(schema)
	if cols[0].Name != "Unnamed: 0" || cols[1].Name != "b" {
		t.Fatalf("schemaColumns() names = %q, %q", cols[0].Name, cols[1].Name)
	}

	row := rowValues(schema.Fields(), map[string]interface{}{"": int64(7), "b": "x"})
	if row[0] != int64(7) || row[1] != "x" {
		t.Errorf("rowValues() = %#v, want [7 x]", row)
	}
}

func TestParseParquet_Invalid(t *testing.T) {
	_, err := ParseParquet("broken.parquet", []byte("definitely not parquet"))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("ParseParquet() error = %v, want *ParseError", err)
	}
	if pe.File != "broken.parquet" {
		t.Errorf("ParseError.File = %q, want broken.parquet", pe.File)
	}
}
