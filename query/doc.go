// Package query provides SQL query parsing and execution over in-memory
// tables.
//
// This package implements a SQL subset with support for:
//   - SELECT with column projection, aliases, DISTINCT and star expansion
//   - WHERE clauses with comparisons, IN, LIKE, BETWEEN and IS NULL
//   - JOINs (INNER, LEFT, RIGHT, FULL, CROSS)
//   - GROUP BY and HAVING for aggregations
//   - ORDER BY for sorting results
//   - LIMIT and OFFSET for pagination
//   - Aggregate functions (COUNT, SUM, AVG, MIN, MAX)
//   - Built-in functions (string, math and null handling)
//   - CASE WHEN expressions
//
// # Basic Usage
//
// Tables are made visible to a query by binding them to names:
//
//	result, err := query.Execute(
//	    "SELECT name, age FROM people WHERE age > 30 ORDER BY age DESC",
//	    query.Bindings{"people": people},
//	)
//	if err != nil {
//	    var qe *query.QueryError
//	    if errors.As(err, &qe) {
//	        log.Printf("%s: %v", qe.Kind, qe)
//	    }
//	    return err
//	}
//
// The result is a new *table.Table whose column types are inferred from the
// values produced.
//
// # Name Resolution
//
// A column is visible both by its bare name and qualified by its source,
// where the source is the alias if one is given and the binding name
// otherwise:
//
//	SELECT e.name, d.name AS dept
//	FROM employees e
//	LEFT JOIN depts d ON e.dept_id = d.id
//
// A bare name that exists in more than one joined source is ambiguous and
// reported as an UnknownIdentifier error. SELECT * over a join names
// colliding columns source.name.
//
// # Nulls
//
// Comparisons with NULL are never true, so WHERE x = NULL selects nothing;
// use IS NULL. Scalar functions return NULL when any argument is NULL,
// except COALESCE, NULLIF and CONCAT. Aggregates skip NULLs. ORDER BY
// places NULLs last in either direction.
//
// # Errors
//
// Every error returned by Execute and ExecuteQuery is a *QueryError. Its
// Kind separates blank input (EmptyQuery), malformed or unsupported text
// (SyntaxError), unknown or ambiguous names (UnknownIdentifier), operations
// on the wrong value types (TypeMismatch) and engine failures (Internal).
// The sentinels ErrEmptyQuery, ErrSyntax, ErrUnknownIdentifier,
// ErrTypeMismatch and ErrInternal can be matched with errors.Is.
//
// # Security
//
// Queries are bounded by MaxQueryLength, MaxTokens and MaxExpressionDepth.
// Queries only ever read the tables they are given.
package query
