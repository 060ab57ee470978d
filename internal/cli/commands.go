package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vegasq/csvview/chart"
	"github.com/vegasq/csvview/output"
	"github.com/vegasq/csvview/query"
	"github.com/vegasq/csvview/session"
	"github.com/vegasq/csvview/table"
	"github.com/vegasq/csvview/transform"
)

func newPreviewCmd(a *app) *cobra.Command {
	var columns []string
	cmd := &cobra.Command{
		Use:   "preview FILE",
		Short: "Show the first rows of a file",
		Example: `  csvview preview people.csv
  csvview preview -n 25 --columns name,age people.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			t, err := a.loadTable(args[0])
			if err != nil {
				return err
			}
			t, err = output.Preview(t, columns, a.rows)
			if err != nil {
				return err
			}
			formatter, err := output.New(a.format, a.stdout)
			if err != nil {
				return err
			}
			return formatter.Format(t)
		},
	}
	cmd.Flags().StringSliceVarP(&columns, "columns", "c", nil, "columns to show, in order (default all)")
	return cmd
}

var schemaColumns = []table.Column{
	{Name: "table", Type: table.TypeText},
	{Name: "column", Type: table.TypeText},
	{Name: "type", Type: table.TypeText},
	{Name: "rows", Type: table.TypeInteger},
}

func newSchemaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "schema FILE...",
		Short: "List the columns and inferred types of files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, results, err := a.loadFiles(cmd.Context(), args)
			if err != nil {
				return err
			}

			var rows [][]interface{}
			loaded := 0
			for _, res := range results {
				if res.Err != nil {
					continue
				}
				loaded++
				for _, col := range res.Table.Columns() {
					rows = append(rows, []interface{}{res.Name, col.Name, col.Type.String(), int64(res.Table.NumRows())})
				}
			}
			if loaded == 0 {
				return fmt.Errorf("no file could be loaded")
			}

			t, err := table.New(schemaColumns, rows)
			if err != nil {
				return err
			}
			return a.write(t)
		},
	}
}

func newFilterCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "filter FILE COLUMN VALUE",
		Short: "Keep rows whose column passes the filter",
		Long: `Keep the rows of FILE whose COLUMN passes the filter for its type.

Numeric columns keep rows greater than VALUE; other columns keep rows equal
to VALUE. Null cells never pass.`,
		Example: `  csvview filter people.csv age 30
  csvview filter people.csv dept eng`,
		Args: cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			t, err := a.loadTable(args[0])
			if err != nil {
				return err
			}
			result, err := transform.Filter(t, args[1], args[2])
			if err != nil {
				return err
			}
			return a.write(result)
		},
	}
}

func newSortCmd(a *app) *cobra.Command {
	var descending bool
	cmd := &cobra.Command{
		Use:   "sort FILE COLUMN",
		Short: "Sort rows by one column",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			t, err := a.loadTable(args[0])
			if err != nil {
				return err
			}
			result, err := transform.SortBy(t, args[1], !descending)
			if err != nil {
				return err
			}
			return a.write(result)
		},
	}
	cmd.Flags().BoolVar(&descending, "desc", false, "sort in descending order")
	return cmd
}

func newJoinCmd(a *app) *cobra.Command {
	var (
		on   string
		kind string
	)
	cmd := &cobra.Command{
		Use:   "join LEFT RIGHT",
		Short: "Join two files on a shared column",
		Example: `  csvview join people.csv depts.csv --on dept
  csvview join --kind outer people.csv depts.csv`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			joinKind, err := transform.ParseJoinKind(kind)
			if err != nil {
				return err
			}
			left, err := a.loadTable(args[0])
			if err != nil {
				return err
			}
			right, err := a.loadTable(args[1])
			if err != nil {
				return err
			}

			column := on
			if column == "" {
				if common := transform.CommonColumns(left, right); len(common) > 0 {
					column = common[0]
				}
			}
			result, err := transform.Join(left, right, column, joinKind)
			if err != nil {
				return err
			}
			return a.write(result)
		},
	}
	cmd.Flags().StringVar(&on, "on", "", "join column (default the first shared column)")
	cmd.Flags().StringVar(&kind, "kind", "inner", "join kind: inner, left, right, outer")
	return cmd
}

func newQueryCmd(a *app) *cobra.Command {
	var sql string
	cmd := &cobra.Command{
		Use:   "query [FILE...]",
		Short: "Run a SQL query over files",
		Long: `Run a SQL query over the given files.

Each file is bound under its base name (people.csv), and the first file is
also bound as df. A file that fails to load is reported and left unbound.`,
		Example: `  csvview query people.csv
  csvview query -q "SELECT dept, AVG(age) FROM df GROUP BY dept" people.csv
  csvview query -q "SELECT p.name, d.floor FROM people.csv p JOIN depts.csv d ON p.dept = d.dept" people.csv depts.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			bindings := query.Bindings{}
			if len(args) > 0 {
				st, results, err := a.loadFiles(cmd.Context(), args)
				if err != nil {
					return err
				}
				bound, err := st.Bindings()
				if err != nil {
					return err
				}
				for name, t := range bound {
					bindings[name] = t
				}
				if first := results[0]; first.Err == nil {
					if _, taken := bindings[session.DefaultAlias]; !taken {
						bindings[session.DefaultAlias] = first.Table
					}
				}
			}

			result, err := query.Execute(sql, bindings)
			if err != nil {
				return err
			}
			return a.write(result)
		},
	}
	cmd.Flags().StringVarP(&sql, "sql", "q", session.DefaultQuery, "SQL query")
	return cmd
}

func newChartCmd(a *app) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "chart FILE X Y",
		Short: "Project two numeric columns into chart points",
		Long: `Project two numeric columns of FILE into a chart.

With --format json the chart spec (kind, title, axes, points) is printed as
one JSON document; other formats print the points as a two-column table.`,
		Args: cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			chartKind, err := chart.ParseKind(kind)
			if err != nil {
				return err
			}
			t, err := a.loadTable(args[0])
			if err != nil {
				return err
			}
			spec, err := chart.Project(t, args[1], args[2], chartKind)
			if err != nil {
				return err
			}

			if strings.EqualFold(a.format, output.FormatJSON) {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(spec)
			}
			return a.write(pointsTable(spec))
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(chart.Scatter), "chart kind: scatter, line, bar")
	return cmd
}

func pointsTable(spec *chart.Spec) *table.Table {
	names := table.UniqueNames([]string{spec.X, spec.Y})
	rows := make([][]interface{}, len(spec.Points))
	for i, p := range spec.Points {
		rows[i] = []interface{}{p.X, p.Y}
	}
	return table.MustNew([]table.Column{
		{Name: names[0], Type: table.TypeFloat},
		{Name: names[1], Type: table.TypeFloat},
	}, rows)
}
