// SPDX-License-Identifier: MIT
package testbed

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skaphos/testbed/internal/pathenv"
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Print the search-path export line for an existing testbed",
	Long:  "Computes the search-path variable from the on-disk working copy and its initialized submodules, without provisioning anything. The output is suitable for `eval`.",
	RunE: func(cmd *cobra.Command, args []string) error {
		bp, _, err := loadBlueprint()
		if err != nil {
			return err
		}
		if target, _ := cmd.Flags().GetString("target"); target != "" {
			bp.TargetPath = target
		}

		adapter := newAdapter()
		ok, err := adapter.IsRepo(cmd.Context(), bp.TargetPath)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s is not a working copy (run testbed provision first)", bp.TargetPath)
		}

		subs, err := adapter.Submodules(cmd.Context(), bp.TargetPath)
		if err != nil {
			return err
		}
		var subPaths []string
		for _, sub := range subs {
			if sub.Initialized {
				subPaths = append(subPaths, sub.Path)
			}
		}

		inherited := ""
		if inherit, _ := cmd.Flags().GetBool("inherit"); inherit {
			inherited = os.Getenv(bp.EnvVar)
		}
		value := pathenv.Compute(bp.TargetPath, subPaths, inherited)
		_, err = fmt.Fprintln(cmd.OutOrStdout(), pathenv.ExportLine(bp.EnvVar, value))
		return err
	},
}

func init() {
	envCmd.Flags().String("target", "", "override the target directory")
	envCmd.Flags().Bool("inherit", true, "append the variable's current value after the computed entries")

	rootCmd.AddCommand(envCmd)
}
