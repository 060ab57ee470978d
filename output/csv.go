package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/vegasq/csvview/table"
)

// CSVFormatter outputs tables as CSV with a header row
type CSVFormatter struct {
	writer io.Writer
}

// NewCSVFormatter creates a new CSV formatter
func NewCSVFormatter(w io.Writer) *CSVFormatter {
	return &CSVFormatter{writer: w}
}

// SetOutput sets the output writer
func (c *CSVFormatter) SetOutput(w io.Writer) {
	c.writer = w
}

// Format writes the table as CSV. Columns keep their table order and a
// zero-row table still produces its header.
func (c *CSVFormatter) Format(t *table.Table) error {
	csvWriter := csv.NewWriter(c.writer)

	if err := csvWriter.Write(t.ColumnNames()); err != nil {
		return err
	}

	record := make([]string, t.NumColumns())
	for r := 0; r < t.NumRows(); r++ {
		for col := range record {
			record[col] = formatValue(t.Value(r, col))
		}
		if err := csvWriter.Write(record); err != nil {
			return err
		}
	}

	// Flush and check for errors
	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV writer: %w", err)
	}

	return nil
}

// formatValue converts a cell to its CSV field. Nulls are empty.
func formatValue(v interface{}) string {
	s, ok := v.(string)
	if !ok {
		return table.Format(v)
	}

	// Sanitize against CSV injection by prefixing dangerous characters
	// that could trigger formula execution in spreadsheet applications
	if len(s) > 0 {
		switch s[0] {
		case '=', '+', '-', '@', '\t', '\r', '\n', '|':
			// Escape existing single quotes and prefix with quote to prevent formula injection
			return "'" + strings.ReplaceAll(s, "'", "''")
		}
	}
	return s
}
