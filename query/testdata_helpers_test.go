package query

import (
	"errors"
	"reflect"
	"testing"

	"github.com/vegasq/csvview/table"
)

// peopleTable returns a small fixture with nulls in integer, float and key
// columns.
func peopleTable() *table.Table {
	return table.MustNew([]table.Column{
		{Name: "id", Type: table.TypeInteger},
		{Name: "name", Type: table.TypeText},
		{Name: "age", Type: table.TypeInteger},
		{Name: "score", Type: table.TypeFloat},
		{Name: "dept_id", Type: table.TypeInteger},
	}, [][]interface{}{
		{int64(1), "Alice", int64(30), 85.5, int64(10)},
		{int64(2), "Bob", int64(25), nil, int64(20)},
		{int64(3), "Carol", int64(35), 92.0, int64(10)},
		{int64(4), "Dave", nil, 70.25, nil},
		{int64(5), "Eve", int64(28), 88.0, int64(30)},
	})
}

func deptsTable() *table.Table {
	return table.MustNew([]table.Column{
		{Name: "id", Type: table.TypeInteger},
		{Name: "name", Type: table.TypeText},
	}, [][]interface{}{
		{int64(10), "Engineering"},
		{int64(20), "Sales"},
		{int64(40), "Legal"},
	})
}

// dfTable is the three-row table bound as "df" by default.
func dfTable() *table.Table {
	return table.MustNew([]table.Column{
		{Name: "a", Type: table.TypeInteger},
		{Name: "b", Type: table.TypeText},
	}, [][]interface{}{
		{int64(1), "x"},
		{int64(2), "y"},
		{int64(3), "z"},
	})
}

func testBindings() Bindings {
	return Bindings{
		"people": peopleTable(),
		"depts":  deptsTable(),
		"df":     dfTable(),
	}
}

// mustExecute runs a query against the test bindings and fails the test on
// error.
func mustExecute(t *testing.T, text string) *table.Table {
	t.Helper()
	result, err := Execute(text, testBindings())
	if err != nil {
		t.Fatalf("Execute(%q) error = %v", text, err)
	}
	return result
}

// expectKind runs a query that must fail with the given error kind.
func expectKind(t *testing.T, text string, kind ErrorKind) *QueryError {
	t.Helper()
	_, err := Execute(text, testBindings())
	if err == nil {
		t.Fatalf("Execute(%q) expected %s error, got nil", text, kind)
	}
	var qe *QueryError
	if !errors.As(err, &qe) {
		t.Fatalf("Execute(%q) error %T is not a *QueryError", text, err)
	}
	if qe.Kind != kind {
		t.Fatalf("Execute(%q) error kind = %s, want %s (%v)", text, qe.Kind, kind, err)
	}
	return qe
}

func rowsOf(tbl *table.Table) [][]interface{} {
	rows := make([][]interface{}, tbl.NumRows())
	for r := range rows {
		rows[r] = tbl.Row(r)
	}
	return rows
}

func checkNames(t *testing.T, tbl *table.Table, want ...string) {
	t.Helper()
	if got := tbl.ColumnNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("columns = %v, want %v", got, want)
	}
}

func checkRows(t *testing.T, tbl *table.Table, want [][]interface{}) {
	t.Helper()
	got := rowsOf(tbl)
	if len(got) != len(want) {
		t.Fatalf("got %d rows %v, want %d rows %v", len(got), got, len(want), want)
	}
	for i := range want {
		if !reflect.DeepEqual(got[i], want[i]) {
			t.Errorf("row %d = %#v, want %#v", i, got[i], want[i])
		}
	}
}
