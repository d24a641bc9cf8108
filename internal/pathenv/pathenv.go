// Package pathenv computes the search-path value a provisioned testbed
// publishes so out-of-process consumers can locate installable code.
package pathenv

import (
	"os"
	"path/filepath"
	"strings"
)

// Compute builds the ordered search-path value: the target checkout
// first, then each submodule working copy in recorded order, then the
// entries inherited from the invoking process. New entries are
// prepended; inherited ones keep their relative order. Duplicates keep
// their first occurrence.
func Compute(targetPath string, submodulePaths []string, inherited string) string {
	entries := make([]string, 0, len(submodulePaths)+2)
	entries = append(entries, filepath.Clean(targetPath))
	for _, sub := range submodulePaths {
		entries = append(entries, filepath.Join(targetPath, filepath.FromSlash(sub)))
	}
	for _, old := range strings.Split(inherited, string(os.PathListSeparator)) {
		if old != "" {
			entries = append(entries, old)
		}
	}
	return strings.Join(dedupe(entries), string(os.PathListSeparator))
}

// Publish exports the value into this process's environment so child
// processes inherit it, and returns the merged value.
func Publish(varName, targetPath string, submodulePaths []string) (string, error) {
	value := Compute(targetPath, submodulePaths, os.Getenv(varName))
	if err := os.Setenv(varName, value); err != nil {
		return "", err
	}
	return value, nil
}

// ExportLine renders a POSIX shell export statement for parents that
// cannot inherit from this process.
func ExportLine(varName, value string) string {
	return "export " + varName + "='" + strings.ReplaceAll(value, "'", `'\''`) + "'"
}

func dedupe(entries []string) []string {
	seen := make(map[string]struct{}, len(entries))
	out := entries[:0]
	for _, e := range entries {
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}
