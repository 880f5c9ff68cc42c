package montage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"automontage/internal/config"
	"automontage/internal/history"
	"automontage/internal/logging"
	"automontage/internal/media/ffmpeg"
	"automontage/internal/media/ffprobe"
	"automontage/internal/music"
	"automontage/internal/services"
	"automontage/internal/transcribe"
)

// Dependencies are the collaborators a Runner drives. Nil fields other than
// Transcriber and History are filled with the ffmpeg, ffprobe and filesystem
// implementations derived from config.
type Dependencies struct {
	Transcriber transcribe.Transcriber
	Composer    VideoComposer
	Selector    TrackSelector
	Probe       Prober
	// History records run start and outcome when set.
	History *history.Store
}

// Runner executes the montage pipeline.
type Runner struct {
	cfg         *config.Config
	logger      *slog.Logger
	transcriber transcribe.Transcriber
	composer    VideoComposer
	selector    TrackSelector
	probe       Prober
	history     *history.Store
	now         func() time.Time
}

// NewRunner builds a Runner for cfg.
func NewRunner(cfg *config.Config, logger *slog.Logger, deps Dependencies) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "montage")
	r := &Runner{
		cfg:         cfg,
		logger:      logger,
		transcriber: deps.Transcriber,
		composer:    deps.Composer,
		selector:    deps.Selector,
		probe:       deps.Probe,
		history:     deps.History,
		now:         time.Now,
	}
	if r.composer == nil {
		r.composer = ffmpeg.NewComposer(ffmpeg.NewExecutor(cfg.FFmpegBinary(), logger), logger)
	}
	if r.selector == nil {
		r.selector = music.NewSelector(music.OSLister{})
	}
	if r.probe == nil {
		binary := cfg.FFprobeBinary()
		r.probe = func(ctx context.Context, path string) (ffprobe.Result, error) {
			return ffprobe.Inspect(ctx, binary, path)
		}
	}
	return r
}

// Run executes every stage in order and returns the produced artefacts. The
// returned Result is populated up to the failing stage.
func (r *Runner) Run(ctx context.Context, req Request) (Result, error) {
	req = r.withDefaults(req)
	if err := validateRequest(req); err != nil {
		return Result{RunID: req.RunID}, err
	}
	if r.transcriber == nil {
		return Result{RunID: req.RunID}, services.Wrap(services.ErrConfiguration, StageTranscribe, "init", "no transcriber configured", nil)
	}

	ctx = services.WithRunID(ctx, req.RunID)
	logger := logging.WithContext(ctx, r.logger)
	started := r.now()

	p := &pipeline{runner: r, req: req, result: Result{
		RunID:      req.RunID,
		InputPath:  req.InputPath,
		TargetRate: *req.TargetRate,
		DryRun:     req.DryRun,
	}}
	defer p.release()

	r.beginHistory(ctx, logger, req, started)
	logger.Info("montage run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("input", req.InputPath),
		logging.String("output_dir", req.OutputDir),
		logging.String("music_dir", req.MusicDir),
		logging.Int("target_rate", *req.TargetRate),
		logging.Bool("dry_run", req.DryRun),
	)

	err := p.execute(ctx)
	p.result.Elapsed = r.now().Sub(started)
	r.finishHistory(ctx, logger, p.result, err)

	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("montage run cancelled", logging.String(logging.FieldEventType, "run_cancelled"))
			return p.result, err
		}
		logging.ErrorWithContext(logger, "montage run failed", "run_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, services.Hint(err)),
			logging.String("error_kind", services.Kind(err)),
		)
		return p.result, err
	}

	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("music", p.result.MusicPath),
		logging.Int("transcript_chars", len(p.result.Transcript.Text)),
		logging.Duration("elapsed", p.result.Elapsed),
	}
	if req.DryRun {
		logger.Info("montage dry run complete", logging.Args(attrs...)...)
	} else {
		attrs = append(attrs, logging.String("output", p.result.OutputPath))
		logger.Info("montage run complete", logging.Args(attrs...)...)
	}
	return p.result, nil
}

func (r *Runner) withDefaults(req Request) Request {
	if strings.TrimSpace(req.RunID) == "" {
		req.RunID = uuid.NewString()
	}
	if r.cfg == nil {
		return req
	}
	if strings.TrimSpace(req.InputPath) == "" {
		req.InputPath = r.cfg.Paths.InputVideo
	}
	if strings.TrimSpace(req.OutputDir) == "" {
		req.OutputDir = r.cfg.Paths.OutputDir
	}
	if strings.TrimSpace(req.MusicDir) == "" {
		req.MusicDir = r.cfg.Paths.MusicDir
	}
	if req.TargetRate == nil {
		target := r.cfg.Music.TargetRate
		req.TargetRate = &target
	}
	return req
}

func validateRequest(req Request) error {
	switch {
	case strings.TrimSpace(req.InputPath) == "":
		return services.Wrap(services.ErrConfiguration, "", "validate request", "input video is not set", nil)
	case strings.TrimSpace(req.OutputDir) == "":
		return services.Wrap(services.ErrConfiguration, "", "validate request", "output directory is not set", nil)
	case strings.TrimSpace(req.MusicDir) == "":
		return services.Wrap(services.ErrConfiguration, "", "validate request", "music directory is not set", nil)
	case req.TargetRate == nil:
		return services.Wrap(services.ErrConfiguration, "", "validate request", "target rate is not set", nil)
	}
	return nil
}

func (r *Runner) beginHistory(ctx context.Context, logger *slog.Logger, req Request, started time.Time) {
	if r.history == nil {
		return
	}
	run := &history.Run{
		ID:         req.RunID,
		StartedAt:  started.UTC(),
		InputPath:  req.InputPath,
		TargetRate: *req.TargetRate,
		DryRun:     req.DryRun,
	}
	if err := r.history.Begin(context.WithoutCancel(ctx), run); err != nil {
		logging.WarnWithContext(logger, "failed to record run start", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run will be missing from history"),
			logging.String(logging.FieldErrorHint, fmt.Sprintf("check %s is writable", r.history.Path())),
		)
	}
}

func (r *Runner) finishHistory(ctx context.Context, logger *slog.Logger, result Result, runErr error) {
	if r.history == nil {
		return
	}
	outcome := history.Outcome{
		Status:          history.StatusCompleted,
		OutputPath:      result.OutputPath,
		MusicPath:       result.MusicPath,
		TranscriptChars: len(result.Transcript.Text),
	}
	if runErr != nil {
		outcome.Status = history.StatusFailed
		outcome.ErrorKind = services.Kind(runErr)
		outcome.Error = runErr.Error()
	}
	// Outcomes of cancelled runs are still stored.
	if err := r.history.Finish(context.WithoutCancel(ctx), result.RunID, outcome); err != nil {
		logging.WarnWithContext(logger, "failed to record run outcome", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "history shows the run as running"),
		)
	}
}
