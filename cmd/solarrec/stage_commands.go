package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <recording-id> <stage>",
		Short: "Re-run a single pipeline stage",
		Long:  "Re-run one of the pipeline stages (transcode, transcribe, render_document) for a recording.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			if err := client.RunStage(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stage %s started for recording %s\n", args[1], args[0])
			return nil
		},
	}
	return cmd
}

func newTranslateCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate <recording-id> <language>",
		Short: "Translate a transcript into a target language",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			view, err := client.Translate(cmd.Context(), args[0], strings.ToLower(args[1]))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Translation (%s) written to %s\n", view.TargetLanguage, view.Path)
			if view.Degraded {
				fmt.Fprintln(out, "Warning: DeepSeek is not configured, a placeholder was written instead")
			}
			return nil
		},
	}
	return cmd
}
