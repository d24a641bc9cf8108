// SPDX-License-Identifier: MIT
package testbed

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skaphos/testbed/internal/pathenv"
	"github.com/skaphos/testbed/internal/provision"
	"github.com/skaphos/testbed/internal/registry"
	"github.com/skaphos/testbed/internal/strutil"
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Bring the target directory to the blueprinted state",
	Long:  "Clones the source repository if needed, hard-resets to the base revision, removes untracked files, syncs submodules to their pinned revisions, overlays the selected files from the overlay revision, and publishes the search-path variable.",
	RunE: func(cmd *cobra.Command, args []string) error {
		debugf(cmd, "starting provision")
		bp, bpPath, err := loadBlueprint()
		if err != nil {
			return err
		}
		if bpPath != "" {
			debugf(cmd, "using blueprint %s", bpPath)
		}

		if target, _ := cmd.Flags().GetString("target"); target != "" {
			bp.TargetPath = target
		}
		if overlay, _ := cmd.Flags().GetString("overlay-paths"); overlay != "" {
			bp.OverlayPaths = strutil.SplitCSV(overlay)
		}
		if err := bp.Validate(); err != nil {
			return err
		}

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		if dryRun {
			for _, step := range provision.Plan(bp) {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%-14s %s\n", step.Name, step.Description); err != nil {
					return err
				}
			}
			return nil
		}

		eng := provision.New(bp, newAdapter())
		res, err := eng.Run(cmd.Context())
		if err != nil {
			// Pipeline failures are operation errors (exit 2); returning
			// the error would escalate to the fatal exit code.
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
			raiseExitCode(2)
			return nil
		}

		recordProvisioned(cmd, eng, res)

		if res.Cloned {
			infof(cmd, "cloned %s into %s", bp.SourceURL, bp.TargetPath)
		}
		infof(cmd, "checked out %s (%d submodules, %d overlay files)",
			res.Revision, len(res.Submodules), len(res.Overlaid))
		_, err = fmt.Fprintln(cmd.OutOrStdout(), pathenv.ExportLine(bp.EnvVar, res.SearchPath))
		return err
	},
}

func init() {
	provisionCmd.Flags().Bool("dry-run", false, "print the pipeline plan without executing it")
	provisionCmd.Flags().String("target", "", "override the target directory")
	provisionCmd.Flags().String("overlay-paths", "", "comma-separated overlay paths (overrides the blueprint)")
	addRegistryFlag(provisionCmd)

	rootCmd.AddCommand(provisionCmd)
}

// recordProvisioned upserts the run into the registry. Registry writes are
// observational and never fail the provisioning itself.
func recordProvisioned(cmd *cobra.Command, eng *provision.Engine, res *provision.Result) {
	regPath, _ := cmd.Flags().GetString("registry")
	if regPath == "" {
		var err error
		regPath, err = registry.DefaultPath()
		if err != nil {
			infof(cmd, "skipping registry update: %v", err)
			return
		}
	}
	reg, err := registry.Load(regPath)
	if err != nil {
		infof(cmd, "skipping registry update: %v", err)
		return
	}
	reg.Upsert(eng.RegistryEntry(res))
	if err := registry.Save(reg, regPath); err != nil {
		infof(cmd, "skipping registry update: %v", err)
	}
}
