package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"automontage/internal/history"
	"automontage/internal/logging"
	"automontage/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report configuration, dependencies and readiness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := logging.IsTerminal(out)

			fmt.Fprintln(out, renderSectionHeader("Configuration", colorize))
			if ctx.configExists {
				fmt.Fprintln(out, renderStatusLine("Config file", statusOK, ctx.configPath, colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Config file", statusWarn, "not found, using defaults ("+ctx.configPath+")", colorize))
			}
			fmt.Fprintln(out, renderStatusLine("Target rate", statusInfo, fmt.Sprintf("%d", cfg.Music.TargetRate), colorize))
			fmt.Fprintln(out, renderStatusLine("Language", statusInfo, cfg.Transcription.LanguageCode, colorize))
			fmt.Fprintln(out, renderStatusLine("Mix original audio", statusInfo, yesNo(cfg.Render.KeepOriginalAudio), colorize))
			fmt.Fprintln(out)

			results := preflight.RunAll(cmd.Context(), cfg)
			fmt.Fprintln(out, renderSectionHeader("Readiness", colorize))
			for _, r := range results {
				kind := statusOK
				if !r.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}
			fmt.Fprintln(out)

			fmt.Fprintln(out, renderSectionHeader("History", colorize))
			renderHistoryCounts(cmd, out, cfg.HistoryPath(), colorize)

			if failed := preflight.Failed(results); len(failed) > 0 {
				fmt.Fprintf(out, "\n%d check(s) failing; `automontage run` will refuse to start\n", len(failed))
			}
			return nil
		},
	}
}

func renderHistoryCounts(cmd *cobra.Command, out io.Writer, path string, colorize bool) {
	store, err := history.Open(cmd.Context(), path)
	if err != nil {
		fmt.Fprintln(out, renderStatusLine("Run history", statusWarn, err.Error(), colorize))
		return
	}
	defer store.Close()
	counts, err := store.CountByStatus(cmd.Context())
	if err != nil {
		fmt.Fprintln(out, renderStatusLine("Run history", statusWarn, err.Error(), colorize))
		return
	}
	summary := fmt.Sprintf("%d completed, %d failed, %d running",
		counts[history.StatusCompleted], counts[history.StatusFailed], counts[history.StatusRunning])
	fmt.Fprintln(out, renderStatusLine("Run history", statusInfo, summary, colorize))
}
