package testbed

import "github.com/spf13/cobra"

const (
	noHeadersUsage = "when using table format, do not print headers"
	yesUsage       = "assume yes for confirmation prompts"
)

func addFormatFlag(cmd *cobra.Command, usage string) {
	cmd.Flags().StringP("format", "o", "table", usage)
}

func addNoHeadersFlag(cmd *cobra.Command) {
	cmd.Flags().Bool("no-headers", false, noHeadersUsage)
}

func addYesFlag(cmd *cobra.Command) {
	cmd.Flags().BoolP("yes", "y", false, yesUsage)
}

func addRegistryFlag(cmd *cobra.Command) {
	cmd.Flags().String("registry", "", "override registry file path")
}
