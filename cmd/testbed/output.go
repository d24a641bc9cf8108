package testbed

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

type outputKind string

const (
	outputKindTable outputKind = "table"
	outputKindWide  outputKind = "wide"
	outputKindJSON  outputKind = "json"
)

func parseOutputKind(format string) (outputKind, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case string(outputKindTable), "":
		return outputKindTable, nil
	case string(outputKindWide):
		return outputKindWide, nil
	case string(outputKindJSON):
		return outputKindJSON, nil
	default:
		return "", fmt.Errorf("unsupported format %q", format)
	}
}

// logOutputWriteFailure records non-fatal output write/flush failures.
// CLI consumers frequently pipe to tools that close early (for example `head`),
// so we log and continue instead of treating these as command failures.
func logOutputWriteFailure(cmd *cobra.Command, context string, err error) {
	if err == nil {
		return
	}
	debugf(cmd, "ignored output write failure (%s): %v", context, err)
}
