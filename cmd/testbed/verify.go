// SPDX-License-Identifier: MIT
package testbed

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skaphos/testbed/internal/model"
	"github.com/skaphos/testbed/internal/provision"
	"github.com/skaphos/testbed/internal/tableutil"
	"github.com/skaphos/testbed/internal/termstyle"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Compare the target directory against the blueprinted state",
	Long:  "Reports drift between the on-disk working copy and the blueprint: the checked-out revision, overlay file contents, and submodule initialization. Verify never mutates the working copy.",
	RunE: func(cmd *cobra.Command, args []string) error {
		debugf(cmd, "starting verify")
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
		if err := bp.Validate(); err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		kind, err := parseOutputKind(format)
		if err != nil {
			return err
		}
		noHeaders, _ := cmd.Flags().GetBool("no-headers")

		checks, err := provision.New(bp, newAdapter()).Verify(cmd.Context())
		if err != nil {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
			raiseExitCode(2)
			return nil
		}

		setColorOutputMode(cmd, format)
		switch kind {
		case outputKindJSON:
			data, err := json.MarshalIndent(checks, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			logOutputWriteFailure(cmd, "verify json", err)
		default:
			logOutputWriteFailure(cmd, "verify table", writeCheckTable(cmd, checks, noHeaders))
		}

		drifted := 0
		for _, check := range checks {
			if !check.OK {
				drifted++
			}
		}
		if drifted > 0 {
			raiseExitCode(1)
		}
		infof(cmd, "verify completed: %d checks, %d drifted", len(checks), drifted)
		return nil
	},
}

func init() {
	verifyCmd.Flags().String("target", "", "override the target directory")
	addFormatFlag(verifyCmd, "output format: table or json")
	addNoHeadersFlag(verifyCmd)

	rootCmd.AddCommand(verifyCmd)
}

func writeCheckTable(cmd *cobra.Command, checks []model.Check, noHeaders bool) error {
	w := tableutil.New(cmd.OutOrStdout(), true)
	if err := tableutil.PrintHeaders(w, noHeaders, "KIND\tSUBJECT\tWANT\tGOT\tSTATE"); err != nil {
		return err
	}
	for _, check := range checks {
		state := termstyle.Colorize(colorOutputEnabled, "drift", termstyle.Drift)
		if check.OK {
			state = termstyle.Colorize(colorOutputEnabled, "ok", termstyle.OK)
		}
		want := check.Want
		if want == "" {
			want = "-"
		}
		got := check.Got
		if got == "" {
			got = "-"
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", check.Kind, check.Subject, want, got, state); err != nil {
			return err
		}
	}
	return w.Flush()
}
