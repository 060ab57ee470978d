package table

import (
	"strconv"
	"strings"
)

// UniqueNames returns names with blanks and repeats resolved: a blank name
// at position i becomes "Unnamed: i" and a repeated name gets ".1", ".2", ...
// appended until it no longer collides with any name produced so far.
func UniqueNames(names []string) []string {
	out := make([]string, len(names))
	used := make(map[string]bool, len(names))
	next := make(map[string]int)

	for i, name := range names {
		if strings.TrimSpace(name) == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		candidate := name
		if used[candidate] {
			k := next[name]
			if k == 0 {
				k = 1
			}
			for {
				candidate = name + "." + strconv.Itoa(k)
				k++
				if !used[candidate] {
					break
				}
			}
			next[name] = k
		}
		used[candidate] = true
		out[i] = candidate
	}

	return out
}
