// Package sortutil provides deterministic orderings for output rows.
package sortutil

import (
	"sort"

	"github.com/skaphos/testbed/internal/registry"
)

// SortEntries orders registry entries by target path.
func SortEntries(entries []registry.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
}

// SortPaths orders a path list lexicographically in place.
func SortPaths(paths []string) {
	sort.Strings(paths)
}
