package query

import (
	"strings"
	"testing"
)

func TestAggregate_GroupBy(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		columns []string
		rows    [][]interface{}
	}{
		{
			name:    "groups keep first appearance order",
			query:   "SELECT dept_id, COUNT(*) AS n, AVG(age) AS avg_age FROM people GROUP BY dept_id",
			columns: []string{"dept_id", "n", "avg_age"},
			rows: [][]interface{}{
				{int64(10), int64(2), 32.5},
				{int64(20), int64(1), 25.0},
				{nil, int64(1), nil},
				{int64(30), int64(1), 28.0},
			},
		},
		{
			name:    "group by position",
			query:   "SELECT dept_id, SUM(age) FROM people GROUP BY 1 ORDER BY 1",
			columns: []string{"dept_id", "SUM(age)"},
			rows: [][]interface{}{
				{int64(10), int64(65)},
				{int64(20), int64(25)},
				{int64(30), int64(28)},
				{nil, nil},
			},
		},
		{
			name:    "group by alias",
			query:   "SELECT UPPER(SUBSTR(name, 1, 1)) AS initial, COUNT(*) AS n FROM people GROUP BY initial ORDER BY n DESC, initial",
			columns: []string{"initial", "n"},
			rows: [][]interface{}{
				{"A", int64(1)},
				{"B", int64(1)},
				{"C", int64(1)},
				{"D", int64(1)},
				{"E", int64(1)},
			},
		},
		{
			name:    "grouped expression in select",
			query:   "SELECT dept_id, CASE WHEN dept_id = 10 THEN 'eng' ELSE 'other' END AS kind, MAX(age) FROM people WHERE dept_id IS NOT NULL GROUP BY dept_id",
			columns: []string{"dept_id", "kind", "MAX(age)"},
			rows: [][]interface{}{
				{int64(10), "eng", int64(35)},
				{int64(20), "other", int64(25)},
				{int64(30), "other", int64(28)},
			},
		},
		{
			name:    "qualified group column matches bare select column",
			query:   "SELECT dept_id, COUNT(*) FROM people p GROUP BY p.dept_id HAVING COUNT(*) > 1",
			columns: []string{"dept_id", "COUNT(*)"},
			rows:    [][]interface{}{{int64(10), int64(2)}},
		},
		{
			name:    "having by alias",
			query:   "SELECT dept_id, COUNT(*) AS n FROM people GROUP BY dept_id HAVING n = 1 AND dept_id IS NOT NULL",
			columns: []string{"dept_id", "n"},
			rows:    [][]interface{}{{int64(20), int64(1)}, {int64(30), int64(1)}},
		},
		{
			name:    "order by aggregate",
			query:   "SELECT dept_id FROM people GROUP BY dept_id ORDER BY COUNT(*) DESC, dept_id DESC LIMIT 2",
			columns: []string{"dept_id"},
			rows:    [][]interface{}{{int64(10)}, {int64(30)}},
		},
		{
			name:    "group by join column",
			query:   "SELECT d.name, COUNT(p.id) AS staff FROM depts d LEFT JOIN people p ON p.dept_id = d.id GROUP BY d.name",
			columns: []string{"name", "staff"},
			rows: [][]interface{}{
				{"Engineering", int64(2)},
				{"Sales", int64(1)},
				{"Legal", int64(0)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := mustExecute(t, tt.query)
			checkNames(t, result, tt.columns...)
			checkRows(t, result, tt.rows)
		})
	}
}

func TestAggregate_WithoutGroupBy(t *testing.T) {
	result := mustExecute(t, "SELECT COUNT(*), COUNT(age), SUM(age), AVG(score), MIN(name), MAX(score) FROM people")
	checkNames(t, result, "COUNT(*)", "COUNT(age)", "SUM(age)", "AVG(score)", "MIN(name)", "MAX(score)")
	checkRows(t, result, [][]interface{}{
		{int64(5), int64(4), int64(118), 83.9375, "Alice", 92.0},
	})
}

func TestAggregate_EmptyInput(t *testing.T) {
	// One group exists even when no row survives WHERE
	result := mustExecute(t, "SELECT COUNT(*) AS n, SUM(age) AS total, MAX(name) AS last FROM people WHERE age > 100")
	checkRows(t, result, [][]interface{}{{int64(0), nil, nil}})

	// With GROUP BY there are no groups at all
	result = mustExecute(t, "SELECT dept_id, COUNT(*) FROM people WHERE age > 100 GROUP BY dept_id")
	checkRows(t, result, nil)
}

func TestAggregate_Distinct(t *testing.T) {
	result := mustExecute(t, "SELECT COUNT(DISTINCT dept_id) AS depts, SUM(DISTINCT dept_id) AS total FROM people")
	checkRows(t, result, [][]interface{}{{int64(3), int64(60)}})
}

func TestAggregate_Sum(t *testing.T) {
	tests := []struct {
		name   string
		values []interface{}
		want   interface{}
	}{
		{"integers stay integers", []interface{}{int64(1), int64(2), int64(3)}, int64(6)},
		{"a float makes a float", []interface{}{int64(1), 2.5}, 3.5},
		{"no values is null", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evaluateSum(tt.values)
			if err != nil {
				t.Fatalf("evaluateSum() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("evaluateSum(%v) = %#v, want %#v", tt.values, got, tt.want)
			}
		})
	}

	if _, err := evaluateSum([]interface{}{int64(1), "x"}); err == nil {
		t.Error("evaluateSum() with text should fail")
	}
}

func TestAggregate_Extremes(t *testing.T) {
	tests := []struct {
		name    string
		values  []interface{}
		wantMin interface{}
		wantMax interface{}
	}{
		{"integers", []interface{}{int64(3), int64(-1), int64(7)}, int64(-1), int64(7)},
		{"mixed numbers keep the original value", []interface{}{int64(3), 2.5, int64(4)}, 2.5, int64(4)},
		{"text", []interface{}{"pear", "apple", "zucchini"}, "apple", "zucchini"},
		{"booleans", []interface{}{true, false}, false, true},
		{"empty", nil, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotMin, err := evaluateExtreme("MIN", tt.values, -1)
			if err != nil {
				t.Fatalf("MIN error = %v", err)
			}
			gotMax, err := evaluateExtreme("MAX", tt.values, 1)
			if err != nil {
				t.Fatalf("MAX error = %v", err)
			}
			if gotMin != tt.wantMin || gotMax != tt.wantMax {
				t.Errorf("MIN, MAX = %#v, %#v, want %#v, %#v", gotMin, gotMax, tt.wantMin, tt.wantMax)
			}
		})
	}

	if _, err := evaluateExtreme("MIN", []interface{}{int64(1), "a"}, -1); err == nil {
		t.Error("MIN over a number and text should fail")
	}
}

func TestAggregate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		kind    ErrorKind
		message string
	}{
		{"ungrouped column", "SELECT name, COUNT(*) FROM people GROUP BY dept_id", SyntaxError, "must appear in GROUP BY"},
		{"ungrouped column without group by", "SELECT name, COUNT(*) FROM people", SyntaxError, "must appear in GROUP BY"},
		{"star with aggregate", "SELECT *, COUNT(*) FROM people", SyntaxError, "cannot be combined"},
		{"star with group by", "SELECT * FROM people GROUP BY dept_id", SyntaxError, "not allowed with GROUP BY"},
		{"aggregate in group by", "SELECT COUNT(*) FROM people GROUP BY COUNT(*)", SyntaxError, "not allowed in GROUP BY"},
		{"group by position out of range", "SELECT dept_id FROM people GROUP BY 2", SyntaxError, "position 2"},
		{"group by unknown column", "SELECT COUNT(*) FROM people GROUP BY nope", UnknownIdentifier, "nope"},
		{"having unknown column", "SELECT dept_id FROM people GROUP BY dept_id HAVING nope > 1", UnknownIdentifier, "nope"},
		{"avg of text", "SELECT AVG(name) FROM people", TypeMismatch, "AVG"},
		{"count distinct star", "SELECT COUNT(DISTINCT *) FROM people", SyntaxError, "COUNT(DISTINCT *)"},
		{"sum with two arguments", "SELECT SUM(age, id) FROM people", SyntaxError, "exactly one argument"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qe := expectKind(t, tt.query, tt.kind)
			if !strings.Contains(qe.Error(), tt.message) {
				t.Errorf("error %q should contain %q", qe.Error(), tt.message)
			}
		})
	}
}
