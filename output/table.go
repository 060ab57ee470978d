package output

import (
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/vegasq/csvview/table"
)

// TableFormatter renders tables as aligned text for terminals
type TableFormatter struct {
	writer io.Writer
}

// NewTableFormatter creates a new text table formatter
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{writer: w}
}

// SetOutput sets the output writer
func (f *TableFormatter) SetOutput(w io.Writer) {
	f.writer = w
}

// Format renders the table with a header row. Nulls are shown as empty
// cells and numeric columns are right aligned.
func (f *TableFormatter) Format(t *table.Table) error {
	tw := tablewriter.NewWriter(f.writer)
	tw.SetHeader(t.ColumnNames())
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)

	alignments := make([]int, t.NumColumns())
	for i, col := range t.Columns() {
		alignments[i] = tablewriter.ALIGN_LEFT
		if col.Type.IsNumeric() {
			alignments[i] = tablewriter.ALIGN_RIGHT
		}
	}
	tw.SetColumnAlignment(alignments)

	for r := 0; r < t.NumRows(); r++ {
		record := make([]string, t.NumColumns())
		for c := range record {
			record[c] = table.Format(t.Value(r, c))
		}
		tw.Append(record)
	}

	tw.Render()
	return nil
}
