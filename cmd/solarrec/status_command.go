package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

const (
	ansiGreen = "\x1b[32m"
	ansiRed   = "\x1b[31m"
	ansiReset = "\x1b[0m"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status and stage readiness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			view, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, view)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			fmt.Fprintf(out, "Recordings: %d\n", view.Recordings)

			if len(view.SyncCounts) > 0 {
				statuses := make([]string, 0, len(view.SyncCounts))
				for status := range view.SyncCounts {
					statuses = append(statuses, status)
				}
				sort.Strings(statuses)
				fmt.Fprintln(out, "Sync:")
				for _, status := range statuses {
					fmt.Fprintf(out, "  %-10s %d\n", status, view.SyncCounts[status])
				}
			}

			fmt.Fprintln(out, "Stages:")
			for _, stage := range view.Stages {
				mark := "ready"
				if !stage.Ready {
					mark = "unavailable"
				}
				if colorize {
					if stage.Ready {
						mark = ansiGreen + mark + ansiReset
					} else {
						mark = ansiRed + mark + ansiReset
					}
				}
				line := fmt.Sprintf("  %-16s %s", stage.Name, mark)
				if stage.Detail != "" {
					line += " (" + stage.Detail + ")"
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
