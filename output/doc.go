// Package output renders tables for people and for other programs.
//
// This package defines the Formatter interface and provides implementations
// for the formats csvview can emit. All formatters take a *table.Table and
// respect its column order, except parquet whose writer orders fields by
// name.
//
// # Supported Formats
//
//   - table: aligned text via tablewriter, nulls shown as empty cells
//   - csv: header row plus one record per row, with formula-injection escaping
//   - json: a single array of row objects
//   - jsonl: one JSON object per line (suitable for streaming)
//   - parquet: a parquet file with optional columns
//
// # Basic Usage
//
//	formatter, err := output.New("csv", os.Stdout)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := formatter.Format(tbl); err != nil {
//	    log.Fatal(err)
//	}
//
// # Previews
//
// Preview bounds what is shown for a loaded table the way the interactive
// viewer does: a column subset and between 1 and 100 rows.
//
//	head, err := output.Preview(tbl, []string{"name", "age"}, 10)
package output
