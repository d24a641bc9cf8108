// SPDX-License-Identifier: MIT
package testbed

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skaphos/testbed/internal/cliio"
	"github.com/skaphos/testbed/internal/registry"
)

var forgetCmd = &cobra.Command{
	Use:   "forget PATH",
	Short: "Remove a testbed from the registry",
	Long:  "Removes the registry record for a testbed. The working copy on disk is never touched.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := args[0]
		reg, regPath, err := loadRegistry(cmd)
		if err != nil {
			return err
		}

		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			confirmed, err := cliio.PromptYesNo(cmd.OutOrStdout(), cmd.InOrStdin(),
				fmt.Sprintf("Forget testbed %s? [y/N]: ", target))
			if err != nil {
				return err
			}
			if !confirmed {
				infof(cmd, "forget cancelled")
				return nil
			}
		}

		if !reg.Remove(target) {
			raiseExitCode(1)
			infof(cmd, "no registry record for %s", target)
			return nil
		}
		if err := registry.Save(reg, regPath); err != nil {
			return err
		}
		infof(cmd, "forgot %s", target)
		return nil
	},
}

func init() {
	addRegistryFlag(forgetCmd)
	addYesFlag(forgetCmd)

	rootCmd.AddCommand(forgetCmd)
}
