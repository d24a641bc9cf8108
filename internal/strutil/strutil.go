// Package strutil holds small string helpers shared by the command layer.
package strutil

import "strings"

// SplitCSV splits a comma-separated value into trimmed, non-empty parts.
func SplitCSV(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	var parts []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		parts = append(parts, part)
	}
	return parts
}
