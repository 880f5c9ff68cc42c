// Package logging assembles structured slog loggers and formatting helpers used
// across automontage.
//
// It owns the console/JSON handlers, mirrors each run's output into a
// per-run log file, and exposes context-aware helpers so stage code tags log
// lines with the run ID and stage name automatically. CleanupOldLogs prunes
// per-run files past the configured retention.
package logging
