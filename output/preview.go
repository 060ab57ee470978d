package output

import (
	"github.com/vegasq/csvview/table"
)

// Preview row bounds.
const (
	MinPreviewRows     = 1
	MaxPreviewRows     = 100
	DefaultPreviewRows = 10
)

// Preview returns the chosen columns (all columns when none are given) and
// at most maxRows rows of t. maxRows is clamped to
// [MinPreviewRows, MaxPreviewRows]; zero selects DefaultPreviewRows.
func Preview(t *table.Table, columns []string, maxRows int) (*table.Table, error) {
	switch {
	case maxRows == 0:
		maxRows = DefaultPreviewRows
	case maxRows < MinPreviewRows:
		maxRows = MinPreviewRows
	case maxRows > MaxPreviewRows:
		maxRows = MaxPreviewRows
	}

	head := t.Head(maxRows)
	if len(columns) == 0 {
		return head, nil
	}
	return head.Project(columns)
}
