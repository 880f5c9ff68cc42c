package montage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"automontage/internal/fileutil"
	"automontage/internal/logging"
	"automontage/internal/media/ffmpeg"
	"automontage/internal/music"
	"automontage/internal/services"
	"automontage/internal/subtitles"
)

type pipeline struct {
	runner *Runner
	req    Request
	result Result
	lock   *flock.Flock
}

type stageFunc func(ctx context.Context) error

func (p *pipeline) execute(ctx context.Context) error {
	steps := []struct {
		name string
		fn   stageFunc
	}{
		{StageLock, p.acquireLock},
		{StageCopy, p.copyInput},
		{StageProbe, p.probeCopy},
		{StageExtract, p.extractAudio},
		{StageTranscribe, p.transcribe},
		{StageCaptions, p.writeCaptions},
		{StageMusic, p.selectMusic},
		{StageCompose, p.compose},
	}
	for _, step := range steps {
		if step.name == StageCompose && p.req.DryRun {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.runStage(ctx, step.name, step.fn); err != nil {
			return err
		}
	}
	return nil
}

func (p *pipeline) runStage(ctx context.Context, name string, fn stageFunc) error {
	stageCtx := services.WithStage(ctx, name)
	logger := logging.WithContext(stageCtx, p.runner.logger)
	if p.req.OnStage != nil {
		p.req.OnStage(name)
	}
	start := time.Now()
	logger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))
	if err := fn(stageCtx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("stage interrupted")
		}
		return err
	}
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", time.Since(start)),
	)
	return nil
}

func (p *pipeline) release() {
	if p.lock == nil {
		return
	}
	if err := p.lock.Unlock(); err != nil {
		logging.WarnWithContext(p.runner.logger, "failed to release output lock", "lock_release_failed",
			logging.Error(err),
			logging.String("lock", p.lock.Path()),
			logging.String(logging.FieldImpact, "the next run may report the directory as busy"),
			logging.String(logging.FieldErrorHint, "remove the lock file if no run is active"),
		)
	}
	p.lock = nil
}

func (p *pipeline) acquireLock(ctx context.Context) error {
	if err := os.MkdirAll(p.req.OutputDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, StageLock, "create output dir", p.req.OutputDir, err)
	}
	lock := flock.New(filepath.Join(p.req.OutputDir, LockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return services.Wrap(services.ErrTransient, StageLock, "acquire lock", lock.Path(), err)
	}
	if !ok {
		return services.Wrap(services.ErrTransient, StageLock, "acquire lock", "another run is using "+p.req.OutputDir, nil)
	}
	p.lock = lock
	return nil
}

func (p *pipeline) copyInput(ctx context.Context) error {
	info, err := os.Stat(p.req.InputPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return services.Wrap(services.ErrNotFound, StageCopy, "stat input", p.req.InputPath, err)
		}
		return services.Wrap(services.ErrTransient, StageCopy, "stat input", p.req.InputPath, err)
	}
	if !info.Mode().IsRegular() {
		return services.Wrap(services.ErrValidation, StageCopy, "stat input", p.req.InputPath+" is not a regular file", nil)
	}

	dst := filepath.Join(p.req.OutputDir, CopyBaseName+filepath.Ext(p.req.InputPath))
	res, err := fileutil.CopyVerified(ctx, p.req.InputPath, dst)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return services.Wrap(services.ErrTransient, StageCopy, "copy input", dst, err)
	}
	p.result.CopyPath = dst
	p.result.Copy = res
	logging.WithContext(ctx, p.runner.logger).Info("input copied",
		logging.String("path", dst),
		logging.Int64("bytes", res.Bytes),
		logging.String("sha256", res.SHA256),
	)
	return nil
}

func (p *pipeline) probeCopy(ctx context.Context) error {
	probe, err := p.runner.probe(ctx, p.result.CopyPath)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return services.Wrap(services.ErrExternalTool, StageProbe, "ffprobe", p.result.CopyPath, err)
	}
	if _, ok := probe.Video(); !ok {
		return services.Wrap(services.ErrValidation, StageProbe, "inspect streams", "input has no video stream", nil)
	}
	if !probe.HasAudio() {
		return services.Wrap(services.ErrValidation, StageProbe, "inspect streams", "input has no audio stream to transcribe", nil)
	}
	p.result.VideoDuration = probe.Duration()
	p.result.SourceHasAudio = true
	logging.WithContext(ctx, p.runner.logger).Info("input probed",
		logging.Duration("duration", p.result.VideoDuration),
		logging.Float64("frame_rate", probe.FrameRate()),
	)
	return nil
}

func (p *pipeline) extractAudio(ctx context.Context) error {
	wav := filepath.Join(p.req.OutputDir, AudioFileName)
	if err := p.runner.composer.ExtractAudio(ctx, p.result.CopyPath, wav, p.sampleRate()); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return services.Wrap(services.ErrExternalTool, StageExtract, "extract audio", wav, err)
	}
	p.result.AudioPath = wav
	return nil
}

func (p *pipeline) transcribe(ctx context.Context) error {
	transcript, err := p.runner.transcriber.Transcribe(ctx, p.result.AudioPath)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return services.Wrap(services.ErrExternalTool, StageTranscribe, "recognize speech", p.result.AudioPath, err)
	}
	transcript.Text = strings.TrimSpace(transcript.Text)
	p.result.Transcript = transcript
	if transcript.Text == "" {
		return services.Wrap(services.ErrValidation, StageTranscribe, "recognize speech", "transcript is empty", nil)
	}
	logging.WithContext(ctx, p.runner.logger).Info("audio transcribed",
		logging.Int("segments", len(transcript.Segments)),
		logging.Int("transcript_chars", len(transcript.Text)),
		logging.String("language", transcript.Language),
	)
	return nil
}

func (p *pipeline) writeCaptions(ctx context.Context) error {
	width := p.wrapWidth()
	captionPath := filepath.Join(p.req.OutputDir, CaptionFileName)
	if err := subtitles.WriteCaptionFile(captionPath, p.result.Transcript.Text, width); err != nil {
		return services.Wrap(services.ErrTransient, StageCaptions, "write caption", captionPath, err)
	}
	p.result.CaptionPath = captionPath

	logger := logging.WithContext(ctx, p.runner.logger)
	seconds := p.result.VideoDuration.Seconds()
	if seconds <= 0 {
		logging.WarnWithContext(logger, "skipping subtitle sidecar", "subtitle_skipped",
			logging.String("reason", "unknown video duration"),
			logging.String(logging.FieldImpact, "no transcript.srt is written"),
			logging.String(logging.FieldErrorHint, "check the ffprobe output for the input"),
		)
		return nil
	}
	srtPath := filepath.Join(p.req.OutputDir, SubtitleFileName)
	cue := subtitles.WholeClipCue(p.result.Transcript.Text, seconds, width)
	if err := subtitles.WriteSRT(srtPath, []subtitles.Cue{cue}); err != nil {
		return services.Wrap(services.ErrTransient, StageCaptions, "write srt", srtPath, err)
	}
	p.result.SubtitlePath = srtPath
	if issues := subtitles.ValidateSRT(srtPath, seconds); len(issues) > 0 {
		p.result.SubtitleIssues = issues
		logging.WarnWithContext(logger, "subtitle sidecar failed validation", "subtitle_validation",
			logging.String("issues", strings.Join(issues, ",")),
			logging.String(logging.FieldImpact, "sidecar may not align with the video"),
		)
	}
	return nil
}

func (p *pipeline) selectMusic(ctx context.Context) error {
	track, err := p.runner.selector.Select(ctx, p.req.MusicDir, p.result.TargetRate)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			return err
		case errors.Is(err, music.ErrEmptyDirectory), errors.Is(err, music.ErrMalformedFilename):
			return services.Wrap(services.ErrValidation, StageMusic, "select track", p.req.MusicDir, err)
		case errors.Is(err, fs.ErrNotExist):
			return services.Wrap(services.ErrNotFound, StageMusic, "select track", p.req.MusicDir, err)
		default:
			return services.Wrap(services.ErrTransient, StageMusic, "select track", p.req.MusicDir, err)
		}
	}
	p.result.MusicPath = track
	logging.WithContext(ctx, p.runner.logger).Info("music selected",
		logging.Args(logging.DecisionAttrs("music_selection", filepath.Base(track),
			fmt.Sprintf("nearest encoded rate to %d", p.result.TargetRate))...)...,
	)
	return nil
}

func (p *pipeline) compose(ctx context.Context) error {
	output := filepath.Join(p.req.OutputDir, OutputFileName)
	req := ffmpeg.ComposeRequest{
		VideoPath:      p.result.CopyPath,
		MusicPath:      p.result.MusicPath,
		CaptionFile:    p.result.CaptionPath,
		OutputPath:     output,
		SourceHasAudio: p.result.SourceHasAudio,
		Duration:       p.result.VideoDuration,
		Progress:       p.req.Progress,
	}
	if cfg := p.runner.cfg; cfg != nil {
		req.VideoCodec = cfg.Render.VideoCodec
		req.AudioCodec = cfg.Render.AudioCodec
		req.CRF = cfg.Render.CRF
		req.Preset = cfg.Render.Preset
		req.FontSize = cfg.Render.FontSize
		req.FontColor = cfg.Render.FontColor
		req.FontFile = cfg.Render.FontFile
		req.BottomMargin = cfg.Render.BottomMargin
		req.MusicVolume = cfg.Render.MusicVolume
		req.KeepOriginalAudio = cfg.Render.KeepOriginalAudio
	}
	if err := p.runner.composer.Compose(ctx, req); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return services.Wrap(services.ErrExternalTool, StageCompose, "render", output, err)
	}
	info, err := os.Stat(output)
	if err != nil || info.Size() == 0 {
		return services.Wrap(services.ErrExternalTool, StageCompose, "verify output", "ffmpeg produced no output at "+output, err)
	}
	p.result.OutputPath = output
	return nil
}

func (p *pipeline) sampleRate() int {
	if cfg := p.runner.cfg; cfg != nil && cfg.Transcription.SampleRateHertz > 0 {
		return cfg.Transcription.SampleRateHertz
	}
	return 16000
}

func (p *pipeline) wrapWidth() int {
	if cfg := p.runner.cfg; cfg != nil && cfg.Render.WrapWidth > 0 {
		return cfg.Render.WrapWidth
	}
	return 42
}
