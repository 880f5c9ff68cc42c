package preflight

import (
	"context"

	"automontage/internal/config"
	"automontage/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every readiness check for cfg. The input video check is
// skipped when no input is configured, which is valid for commands that do
// not render.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckOutputDirectory("Output directory", cfg.Paths.OutputDir),
		CheckReadableDirectory("Music directory", cfg.Paths.MusicDir),
	}
	if cfg.Paths.InputVideo != "" {
		results = append(results, CheckInputFile("Input video", cfg.Paths.InputVideo))
	}
	results = append(results, CheckCredentials(cfg.Transcription.CredentialsFile, cfg.Transcription.APIKey))
	for _, status := range CheckSystemDeps(ctx, cfg) {
		results = append(results, fromDependency(status))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

// CheckSystemDeps reports ffmpeg and ffprobe availability for cfg.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	return deps.CheckMedia(ctx, cfg.FFmpegBinary(), cfg.FFprobeBinary())
}

func fromDependency(status deps.Status) Result {
	if status.Available {
		detail := status.Path
		if status.Version != "" {
			detail += " (" + status.Version + ")"
		}
		return Result{Name: status.Name, Passed: true, Detail: detail}
	}
	return Result{Name: status.Name, Passed: status.Optional, Detail: status.Detail}
}
