package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"automontage/internal/config"
	"automontage/internal/history"
	"automontage/internal/logging"
	"automontage/internal/media/ffmpeg"
	"automontage/internal/montage"
	"automontage/internal/preflight"
	"automontage/internal/services"
	"automontage/internal/transcribe"
)

type runOptions struct {
	input      string
	outputDir  string
	musicDir   string
	targetRate int
	// targetRateSet distinguishes an explicit --target-rate 0 from the default.
	targetRateSet bool
	dryRun        bool
	noProgress    bool
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Transcribe, caption and score a video",
		Long: `Copy the input video into the output directory, transcribe its audio,
burn the transcript in as a caption, mix in the music track whose encoded
rate is closest to the target rate, and write output_video.mp4.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts.targetRateSet = cmd.Flags().Changed("target-rate")
			runCfg, err := applyRunOverrides(*cfg, opts)
			if err != nil {
				return err
			}
			return executeRun(cmd, &runCfg, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Input video (overrides paths.input_video)")
	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "Output directory (overrides paths.output_dir)")
	cmd.Flags().StringVarP(&opts.musicDir, "music-dir", "m", "", "Music directory (overrides paths.music_dir)")
	cmd.Flags().IntVarP(&opts.targetRate, "target-rate", "r", 0, "Target rate used to pick music (overrides music.target_rate)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Stop after selecting music; do not render")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "Disable the render progress bar")
	return cmd
}

func applyRunOverrides(cfg config.Config, opts runOptions) (config.Config, error) {
	paths := []struct {
		flag   string
		target *string
	}{
		{opts.input, &cfg.Paths.InputVideo},
		{opts.outputDir, &cfg.Paths.OutputDir},
		{opts.musicDir, &cfg.Paths.MusicDir},
	}
	for _, p := range paths {
		value := strings.TrimSpace(p.flag)
		if value == "" {
			continue
		}
		expanded, err := config.ExpandPath(value)
		if err != nil {
			return cfg, fmt.Errorf("resolve path %q: %w", value, err)
		}
		*p.target = expanded
	}
	if opts.targetRateSet {
		cfg.Music.TargetRate = opts.targetRate
	}
	if strings.TrimSpace(cfg.Paths.InputVideo) == "" {
		return cfg, services.Wrap(services.ErrConfiguration, "", "run", "no input video; pass --input or set paths.input_video", nil)
	}
	return cfg, nil
}

func executeRun(cmd *cobra.Command, cfg *config.Config, opts runOptions) error {
	runCtx := cmd.Context()
	if runCtx == nil {
		runCtx = context.Background()
	}
	out := cmd.OutOrStdout()

	if failed := preflight.Failed(preflight.RunAll(runCtx, cfg)); len(failed) > 0 {
		fmt.Fprintln(out, "Preflight checks failed:")
		for _, r := range failed {
			fmt.Fprintln(out, renderStatusLine(r.Name, statusError, r.Detail, false))
		}
		return services.Wrap(services.ErrConfiguration, "", "preflight", fmt.Sprintf("%d check(s) failed", len(failed)), nil)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	runID := uuid.NewString()
	logger, err := logging.NewFromConfig(cfg, runID)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.RetentionTarget{
		Dir:     cfg.Paths.LogDir,
		Pattern: "automontage-*.log",
	})

	transcriber, err := transcribe.NewGoogleClient(runCtx, transcribe.GoogleConfig{
		CredentialsFile:      cfg.Transcription.CredentialsFile,
		APIKey:               cfg.Transcription.APIKey,
		BaseURL:              cfg.Transcription.BaseURL,
		LanguageCode:         cfg.Transcription.LanguageCode,
		SampleRateHertz:      cfg.Transcription.SampleRateHertz,
		TimeoutSeconds:       cfg.Transcription.TimeoutSeconds,
		AutomaticPunctuation: cfg.Transcription.AutomaticPunctuation,
	})
	if err != nil {
		return err
	}

	store, err := history.Open(runCtx, cfg.HistoryPath())
	if err != nil {
		logging.WarnWithContext(logger, "run history unavailable", "history_open_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run will not be recorded"),
			logging.String(logging.FieldErrorHint, "check paths.state_dir permissions"),
		)
		store = nil
	} else {
		defer store.Close()
	}

	progress, finish := newRenderProgress(cmd.ErrOrStderr(), opts.noProgress || opts.dryRun)
	runner := montage.NewRunner(cfg, logger, montage.Dependencies{
		Transcriber: transcriber,
		History:     store,
	})
	result, err := runner.Run(runCtx, montage.Request{
		RunID:    runID,
		DryRun:   opts.dryRun,
		Progress: progress,
	})
	finish()
	if err != nil {
		return err
	}

	printRunSummary(out, result)
	return nil
}

func printRunSummary(out io.Writer, result montage.Result) {
	if result.DryRun {
		fmt.Fprintln(out, "Dry run complete; nothing rendered")
	} else {
		fmt.Fprintf(out, "Output:     %s\n", result.OutputPath)
	}
	fmt.Fprintf(out, "Music:      %s (target rate %d)\n", result.MusicPath, result.TargetRate)
	fmt.Fprintf(out, "Transcript: %d chars\n", len(result.Transcript.Text))
	if result.SubtitlePath != "" {
		fmt.Fprintf(out, "Subtitles:  %s\n", result.SubtitlePath)
	}
	fmt.Fprintf(out, "Run ID:     %s\n", result.RunID)
	fmt.Fprintf(out, "Elapsed:    %s\n", result.Elapsed.Round(time.Millisecond))
}

// newRenderProgress returns a ffmpeg progress callback that drives a
// terminal progress bar, and a func that closes the bar. Non-terminal
// writers get a nil callback; ffmpeg progress then only reaches debug logs.
func newRenderProgress(w io.Writer, disabled bool) (ffmpeg.ProgressFunc, func()) {
	if disabled || !logging.IsTerminal(w) {
		return nil, func() {}
	}
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("rendering"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	update := func(p ffmpeg.Progress) {
		if p.Percent < 0 {
			return
		}
		_ = bar.Set(int(p.Percent))
		if p.Done {
			_ = bar.Finish()
		}
	}
	return update, func() { _ = bar.Close() }
}
