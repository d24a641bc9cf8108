// SPDX-License-Identifier: MIT
package testbed

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skaphos/testbed/internal/registry"
	"github.com/skaphos/testbed/internal/sortutil"
	"github.com/skaphos/testbed/internal/tableutil"
	"github.com/skaphos/testbed/internal/termstyle"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List testbeds recorded on this machine",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, _, err := loadRegistry(cmd)
		if err != nil {
			return err
		}
		reg.Refresh()
		sortutil.SortEntries(reg.Entries)

		format, _ := cmd.Flags().GetString("format")
		kind, err := parseOutputKind(format)
		if err != nil {
			return err
		}
		noHeaders, _ := cmd.Flags().GetBool("no-headers")

		setColorOutputMode(cmd, format)
		switch kind {
		case outputKindJSON:
			data, err := json.MarshalIndent(reg.Entries, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			logOutputWriteFailure(cmd, "list json", err)
		default:
			logOutputWriteFailure(cmd, "list table", writeEntryTable(cmd, reg.Entries, noHeaders, kind == outputKindWide))
		}

		for _, entry := range reg.Entries {
			if entry.Status == registry.StatusMissing {
				raiseExitCode(1)
				break
			}
		}
		infof(cmd, "list completed: %d testbeds", len(reg.Entries))
		return nil
	},
}

func init() {
	addRegistryFlag(listCmd)
	addFormatFlag(listCmd, "output format: table, wide, or json")
	addNoHeadersFlag(listCmd)

	rootCmd.AddCommand(listCmd)
}

// loadRegistry loads the registry honoring a per-command --registry override.
func loadRegistry(cmd *cobra.Command) (*registry.Registry, string, error) {
	path, _ := cmd.Flags().GetString("registry")
	if path == "" {
		var err error
		path, err = registry.DefaultPath()
		if err != nil {
			return nil, "", err
		}
	}
	reg, err := registry.Load(path)
	if err != nil {
		return nil, path, err
	}
	return reg, path, nil
}

func writeEntryTable(cmd *cobra.Command, entries []registry.Entry, noHeaders, wide bool) error {
	w := tableutil.New(cmd.OutOrStdout(), true)
	headers := "PATH\tBASE\tSTATUS"
	if wide {
		headers = "PATH\tSOURCE_URL\tBASE\tOVERLAY\tOVERLAY_PATHS\tLAST_PROVISIONED\tSTATUS"
	}
	if err := tableutil.PrintHeaders(w, noHeaders, headers); err != nil {
		return err
	}
	for _, entry := range entries {
		status := termstyle.Colorize(colorOutputEnabled, string(entry.Status), termstyle.OK)
		if entry.Status == registry.StatusMissing {
			status = termstyle.Colorize(colorOutputEnabled, string(entry.Status), termstyle.Drift)
		}
		if !wide {
			if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", entry.Path, shortRevision(entry.BaseRevision), status); err != nil {
				return err
			}
			continue
		}
		last := "-"
		if !entry.LastProvisioned.IsZero() {
			last = entry.LastProvisioned.Format("2006-01-02 15:04:05")
		}
		overlay := "-"
		if len(entry.OverlayPaths) > 0 {
			overlay = strings.Join(entry.OverlayPaths, ",")
		}
		if _, err := fmt.Fprintf(
			w,
			"%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			entry.Path,
			entry.SourceURL,
			shortRevision(entry.BaseRevision),
			shortRevision(entry.OverlayRevision),
			overlay,
			last,
			status,
		); err != nil {
			return err
		}
	}
	return w.Flush()
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	if rev == "" {
		return "-"
	}
	return rev
}
