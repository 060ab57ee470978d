package query

import (
	"testing"
)

func TestJoin_Types(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		columns []string
		rows    [][]interface{}
	}{
		{
			name:    "inner join qualifies colliding names",
			query:   "SELECT p.name, d.name FROM people AS p INNER JOIN depts AS d ON p.dept_id = d.id",
			columns: []string{"p.name", "d.name"},
			rows: [][]interface{}{
				{"Alice", "Engineering"},
				{"Bob", "Sales"},
				{"Carol", "Engineering"},
			},
		},
		{
			name:    "plain join is inner",
			query:   "SELECT p.id FROM people p JOIN depts d ON p.dept_id = d.id",
			columns: []string{"id"},
			rows:    [][]interface{}{{int64(1)}, {int64(2)}, {int64(3)}},
		},
		{
			name:    "left join pads the right side",
			query:   "SELECT p.name, d.name AS dept FROM people p LEFT JOIN depts d ON p.dept_id = d.id",
			columns: []string{"name", "dept"},
			rows: [][]interface{}{
				{"Alice", "Engineering"},
				{"Bob", "Sales"},
				{"Carol", "Engineering"},
				{"Dave", nil},
				{"Eve", nil},
			},
		},
		{
			name:    "left outer join",
			query:   "SELECT COUNT(*) AS n FROM people p LEFT OUTER JOIN depts d ON p.dept_id = d.id",
			columns: []string{"n"},
			rows:    [][]interface{}{{int64(5)}},
		},
		{
			name:    "right join keeps every right row",
			query:   "SELECT d.name, p.name FROM people p RIGHT JOIN depts d ON p.dept_id = d.id",
			columns: []string{"d.name", "p.name"},
			rows: [][]interface{}{
				{"Engineering", "Alice"},
				{"Engineering", "Carol"},
				{"Sales", "Bob"},
				{"Legal", nil},
			},
		},
		{
			name:    "full join",
			query:   "SELECT p.id, d.id FROM people p FULL OUTER JOIN depts d ON p.dept_id = d.id",
			columns: []string{"p.id", "d.id"},
			rows: [][]interface{}{
				{int64(1), int64(10)},
				{int64(2), int64(20)},
				{int64(3), int64(10)},
				{int64(4), nil},
				{int64(5), nil},
				{nil, int64(40)},
			},
		},
		{
			name:    "cross join",
			query:   "SELECT COUNT(*) FROM people CROSS JOIN depts",
			columns: []string{"COUNT(*)"},
			rows:    [][]interface{}{{int64(15)}},
		},
		{
			name:    "unique bare names need no qualifier",
			query:   "SELECT age, dept_id FROM people p JOIN depts d ON dept_id = d.id WHERE age > 29",
			columns: []string{"age", "dept_id"},
			rows:    [][]interface{}{{int64(30), int64(10)}, {int64(35), int64(10)}},
		},
		{
			name:    "join condition with and",
			query:   "SELECT p.name FROM people p JOIN depts d ON p.dept_id = d.id AND p.age > 30",
			columns: []string{"name"},
			rows:    [][]interface{}{{"Carol"}},
		},
		{
			name:    "self join with aliases",
			query:   "SELECT a.name, b.name FROM people a JOIN people b ON a.dept_id = b.dept_id AND a.id < b.id",
			columns: []string{"a.name", "b.name"},
			rows:    [][]interface{}{{"Alice", "Carol"}},
		},
		{
			name:    "three way join",
			query:   "SELECT x.a, p.name, d.name AS dept FROM df x JOIN people p ON x.a = p.id JOIN depts d ON p.dept_id = d.id",
			columns: []string{"a", "name", "dept"},
			rows: [][]interface{}{
				{int64(1), "Alice", "Engineering"},
				{int64(2), "Bob", "Sales"},
				{int64(3), "Carol", "Engineering"},
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

func TestJoin_SelectStar(t *testing.T) {
	result := mustExecute(t, "SELECT * FROM people p JOIN depts d ON p.dept_id = d.id WHERE p.id = 2")
	checkNames(t, result, "p.id", "p.name", "age", "score", "dept_id", "d.id", "d.name")
	checkRows(t, result, [][]interface{}{
		{int64(2), "Bob", int64(25), nil, int64(20), int64(20), "Sales"},
	})
}

func TestJoin_EmptySide(t *testing.T) {
	bindings := testBindings()
	bindings["nobody"] = peopleTable().Empty()

	result, err := Execute("SELECT d.name, n.name FROM nobody n RIGHT JOIN depts d ON n.dept_id = d.id", bindings)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	checkNames(t, result, "d.name", "n.name")
	checkRows(t, result, [][]interface{}{
		{"Engineering", nil},
		{"Sales", nil},
		{"Legal", nil},
	})

	result, err = Execute("SELECT * FROM depts d LEFT JOIN nobody n ON n.dept_id = d.id", bindings)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.NumColumns() != 7 || result.NumRows() != 3 {
		t.Errorf("got %d columns and %d rows, want 7 and 3", result.NumColumns(), result.NumRows())
	}
}

func TestJoin_Errors(t *testing.T) {
	tests := []struct {
		name  string
		query string
		kind  ErrorKind
	}{
		{"ambiguous bare name", "SELECT name FROM people p JOIN depts d ON p.dept_id = d.id", UnknownIdentifier},
		{"ambiguous in condition", "SELECT p.name FROM people p JOIN depts d ON id = dept_id", UnknownIdentifier},
		{"unknown join table", "SELECT * FROM people p JOIN nope n ON p.id = n.id", UnknownIdentifier},
		{"missing on", "SELECT * FROM people p JOIN depts d", SyntaxError},
		{"cross join with on", "SELECT * FROM people CROSS JOIN depts ON people.id = depts.id", SyntaxError},
		{"aggregate in on", "SELECT * FROM people p JOIN depts d ON COUNT(*) > 1", SyntaxError},
		{"type mismatch in on", "SELECT * FROM people p JOIN depts d ON p.name = d.id", TypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qe := expectKind(t, tt.query, tt.kind)
			if tt.name == "ambiguous bare name" && qe.Error() != `unknown identifier: column reference "name" is ambiguous` {
				t.Errorf("error = %q", qe.Error())
			}
		})
	}
}
