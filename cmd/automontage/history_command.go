package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"automontage/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent montage runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cmd.Context(), cfg.HistoryPath())
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortID(run.ID),
					run.StartedAt.Local().Format("2006-01-02 15:04:05"),
					historyStatus(run),
					formatRunDuration(run.Duration()),
					baseOrDash(run.MusicPath),
					historyDetail(run),
				})
			}
			renderTable(out, []string{"ID", "Started", "Status", "Duration", "Music", "Output / Error"}, rows, 3)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.AddCommand(newHistoryShowCommand(ctx))
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show every recorded field of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cmd.Context(), cfg.HistoryPath())
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := findRun(cmd, store, strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			printRun(cmd.OutOrStdout(), *run)
			return nil
		},
	}
}

// findRun resolves a full run ID or the 8-character prefix shown by `history`.
func findRun(cmd *cobra.Command, store *history.Store, id string) (*history.Run, error) {
	if id == "" {
		return nil, fmt.Errorf("run id is required")
	}
	run, err := store.Get(cmd.Context(), id)
	if err != nil {
		return nil, err
	}
	if run != nil {
		return run, nil
	}
	runs, err := store.List(cmd.Context(), 500)
	if err != nil {
		return nil, err
	}
	var match *history.Run
	for i := range runs {
		if strings.HasPrefix(runs[i].ID, id) {
			if match != nil {
				return nil, fmt.Errorf("run id %q is ambiguous", id)
			}
			match = &runs[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("run %q not found", id)
	}
	return match, nil
}

func printRun(out io.Writer, run history.Run) {
	fmt.Fprintf(out, "Run:         %s\n", run.ID)
	fmt.Fprintf(out, "Status:      %s\n", historyStatus(run))
	fmt.Fprintf(out, "Started:     %s\n", run.StartedAt.Local().Format(time.RFC3339))
	if !run.FinishedAt.IsZero() {
		fmt.Fprintf(out, "Finished:    %s (%s)\n", run.FinishedAt.Local().Format(time.RFC3339), formatRunDuration(run.Duration()))
	}
	fmt.Fprintf(out, "Dry run:     %s\n", yesNo(run.DryRun))
	fmt.Fprintf(out, "Input:       %s\n", run.InputPath)
	fmt.Fprintf(out, "Target rate: %d\n", run.TargetRate)
	fmt.Fprintf(out, "Music:       %s\n", dashIfEmpty(run.MusicPath))
	fmt.Fprintf(out, "Output:      %s\n", dashIfEmpty(run.OutputPath))
	fmt.Fprintf(out, "Transcript:  %d chars\n", run.TranscriptChars)
	if run.Error != "" {
		fmt.Fprintf(out, "Error:       [%s] %s\n", run.ErrorKind, run.Error)
	}
}

func historyStatus(run history.Run) string {
	status := string(run.Status)
	if run.DryRun {
		status += " (dry run)"
	}
	return status
}

func historyDetail(run history.Run) string {
	if run.Status == history.StatusFailed {
		msg := run.Error
		if len(msg) > 60 {
			msg = msg[:57] + "..."
		}
		return msg
	}
	return baseOrDash(run.OutputPath)
}

func formatRunDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func baseOrDash(path string) string {
	if strings.TrimSpace(path) == "" {
		return "-"
	}
	return filepath.Base(path)
}

func dashIfEmpty(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
