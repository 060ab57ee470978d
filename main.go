// Command csvview previews, filters, sorts, joins, queries and charts
// CSV, TSV and Parquet files, and serves the same operations over HTTP.
//
// Usage:
//
//	csvview preview people.csv
//	csvview query -q "SELECT dept, COUNT(*) FROM df GROUP BY dept" people.csv
//	csvview serve --listen :8080
package main

import (
	"context"
	"os"

	"github.com/vegasq/csvview/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
