package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "sync <recording-id>",
		Short: "Deliver a processed recording to Solar Core",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			outcome, err := client.Sync(cmd.Context(), args[0], nil)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, outcome)
			}

			out := cmd.OutOrStdout()
			if outcome.Status == "synced" {
				fmt.Fprintf(out, "Recording %s synced after %d attempt(s)", outcome.RecordingID, outcome.Attempts)
				if outcome.RemoteID != "" {
					fmt.Fprintf(out, " (remote id %s)", outcome.RemoteID)
				}
				fmt.Fprintln(out)
				return nil
			}
			fmt.Fprintf(out, "Sync failed after %d attempt(s): %s\n", outcome.Attempts, outcome.Message)
			return fmt.Errorf("recording %s did not sync", outcome.RecordingID)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newSyncLogCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "synclog <recording-id>",
		Short: "Show a recording's sync history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			view, err := client.SyncStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, view)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Recording %s: %s", view.RecordingID, view.SyncStatus)
			if view.RemoteID != "" {
				fmt.Fprintf(out, " (remote id %s)", view.RemoteID)
			}
			fmt.Fprintln(out)

			if len(view.History) == 0 {
				fmt.Fprintln(out, "No sync attempts recorded")
				return nil
			}

			headers := []string{"Time", "Status", "Retry", "Detail"}
			rows := make([][]string, 0, len(view.History))
			for _, entry := range view.History {
				detail := entry.RemoteResponse
				if entry.ErrorMessage != "" {
					detail = entry.ErrorMessage
				}
				rows = append(rows, []string{
					entry.Timestamp.Local().Format("2006-01-02 15:04:05"),
					entry.Status,
					fmt.Sprintf("%d", entry.RetryCount),
					detail,
				})
			}
			fmt.Fprintln(out, renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignRight, alignLeft}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
