package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"solarrec/internal/api"
	"solarrec/internal/recording"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recordings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			views, err := client.ListRecordings(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, map[string]any{"recordings": views})
			}
			if len(views) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No recordings")
				return nil
			}

			headers := []string{"ID", "Name", "Transcode", "Transcribe", "Render", "Sync", "Created"}
			rows := make([][]string, 0, len(views))
			for _, view := range views {
				rows = append(rows, []string{
					view.ID,
					view.DisplayName,
					view.Stages[string(recording.StageTranscode)],
					view.Stages[string(recording.StageTranscribe)],
					view.Stages[string(recording.StageRenderDocument)],
					view.SyncStatus,
					view.CreatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <recording-id>",
		Short: "Display one recording in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			view, err := client.GetRecording(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, view)
			}
			printRecordingDetail(cmd, view)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func printRecordingDetail(cmd *cobra.Command, view api.RecordingView) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:            %s\n", view.ID)
	fmt.Fprintf(out, "Name:          %s\n", view.DisplayName)
	fmt.Fprintf(out, "Created:       %s\n", view.CreatedAt.Local().Format(time.RFC1123))
	fmt.Fprintf(out, "Dual track:    %s\n", yesNo(view.MicrophonePath != ""))
	if view.DurationSeconds > 0 {
		fmt.Fprintf(out, "Duration:      %.1fs\n", view.DurationSeconds)
	}
	if view.DetectedLanguage != "" {
		fmt.Fprintf(out, "Language:      %s (%.0f%% confidence, %d segments)\n",
			view.DetectedLanguage, view.LanguageConfidence*100, view.SegmentsCount)
	}

	fmt.Fprintln(out, "Stages:")
	for _, stage := range recording.Stages() {
		name := string(stage)
		line := fmt.Sprintf("  %-16s %s", name, view.Stages[name])
		if msg, ok := view.StageErrors[name]; ok {
			line += " (" + msg + ")"
		}
		fmt.Fprintln(out, line)
	}

	if len(view.Translations) > 0 {
		languages := make([]string, 0, len(view.Translations))
		for lang := range view.Translations {
			languages = append(languages, lang)
		}
		sort.Strings(languages)
		fmt.Fprintf(out, "Translations:  %s\n", strings.Join(languages, ", "))
	}

	fmt.Fprintf(out, "Sync:          %s", view.SyncStatus)
	if view.RemoteID != "" {
		fmt.Fprintf(out, " (remote id %s)", view.RemoteID)
	}
	fmt.Fprintln(out)

	for _, artifact := range []struct {
		label string
		path  string
	}{
		{"Video", view.VideoPath},
		{"Microphone", view.MicrophonePath},
		{"Merged", view.MergedPath},
		{"MP4", view.MP4Path},
		{"Transcript", view.TranscriptPath},
		{"Document", view.DocumentPath},
	} {
		if artifact.path != "" {
			fmt.Fprintf(out, "%-14s %s\n", artifact.label+":", artifact.path)
		}
	}
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var microphonePath string
	var displayName string
	var durationSeconds float64

	cmd := &cobra.Command{
		Use:   "add <video-file>",
		Short: "Upload a capture and start processing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			view, err := client.Upload(cmd.Context(), args[0], microphonePath, displayName, durationSeconds)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recording %s accepted, processing started\n", view.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&microphonePath, "microphone", "", "Separate microphone track to merge")
	cmd.Flags().StringVar(&displayName, "name", "", "Display name for the recording")
	cmd.Flags().Float64Var(&durationSeconds, "duration", 0, "Capture duration in seconds")
	return cmd
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <recording-id>",
		Short: "Delete a recording and its artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			if err := client.DeleteRecording(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recording %s deleted\n", args[0])
			return nil
		},
	}
	return cmd
}
