package reader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vegasq/csvview/table"
)

// maxGlobMatches bounds how many files a single pattern may expand to.
const maxGlobMatches = 1000

// Load parses file content into a table. Names ending in ".parquet", or
// content framed by the parquet magic bytes, are decoded as parquet;
// everything else is delimited text.
func Load(name string, data []byte, opts Options) (*table.Table, error) {
	if strings.EqualFold(filepath.Ext(name), ".parquet") || isParquet(data) {
		return ParseParquet(name, data)
	}
	return ParseCSV(name, data, opts)
}

// ExpandPaths expands glob patterns into file paths, keeping argument
// order. Arguments without wildcards are passed through unchanged so a
// missing file is reported when it is loaded.
//
// The pattern can include wildcards:
//   - * matches any sequence of non-separator characters
//   - ? matches any single non-separator character
//   - [range] matches any character in range
func ExpandPaths(args []string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)

	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[") {
			if !seen[arg] {
				seen[arg] = true
				paths = append(paths, arg)
			}
			continue
		}

		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern: %w", err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match pattern: %s", arg)
		}
		if len(matches) > maxGlobMatches {
			return nil, fmt.Errorf("glob pattern matched too many files (%d), maximum is %d", len(matches), maxGlobMatches)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}

	return paths, nil
}
