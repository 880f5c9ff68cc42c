package montage

import (
	"context"
	"time"

	"automontage/internal/fileutil"
	"automontage/internal/media/ffmpeg"
	"automontage/internal/media/ffprobe"
	"automontage/internal/transcribe"
)

// Stage names, in execution order.
const (
	StageLock       = "lock"
	StageCopy       = "copy"
	StageProbe      = "probe"
	StageExtract    = "extract"
	StageTranscribe = "transcribe"
	StageCaptions   = "captions"
	StageMusic      = "music"
	StageCompose    = "compose"
)

// Artefact names inside the output directory.
const (
	LockFileName     = ".automontage.lock"
	CopyBaseName     = "video_copy"
	AudioFileName    = "video_audio.wav"
	CaptionFileName  = "caption.txt"
	SubtitleFileName = "transcript.srt"
	OutputFileName   = "output_video.mp4"
)

// Stages lists every stage name in the order Run executes them.
func Stages() []string {
	return []string{
		StageLock,
		StageCopy,
		StageProbe,
		StageExtract,
		StageTranscribe,
		StageCaptions,
		StageMusic,
		StageCompose,
	}
}

// VideoComposer extracts audio from and renders the final video.
type VideoComposer interface {
	ExtractAudio(ctx context.Context, videoPath, wavPath string, sampleRate int) error
	Compose(ctx context.Context, req ffmpeg.ComposeRequest) error
}

// TrackSelector picks the background track for a target rate.
type TrackSelector interface {
	Select(ctx context.Context, dir string, target int) (string, error)
}

// Prober inspects a media file.
type Prober func(ctx context.Context, path string) (ffprobe.Result, error)

// Request describes one pipeline run. Blank fields fall back to config.
type Request struct {
	RunID     string
	InputPath string
	OutputDir string
	MusicDir  string
	// TargetRate overrides music.target_rate when non-nil. Zero and negative
	// targets are valid.
	TargetRate *int
	// DryRun stops after the music stage; nothing is rendered.
	DryRun   bool
	Progress ffmpeg.ProgressFunc
	// OnStage is called as each stage starts.
	OnStage func(stage string)
}

// Result reports the artefacts of a run.
type Result struct {
	RunID        string
	InputPath    string
	CopyPath     string
	AudioPath    string
	CaptionPath  string
	SubtitlePath string
	MusicPath    string
	OutputPath   string
	TargetRate   int
	DryRun       bool

	Copy           fileutil.CopyResult
	VideoDuration  time.Duration
	SourceHasAudio bool
	Transcript     transcribe.Transcript
	// SubtitleIssues holds sidecar validation codes; they never fail a run.
	SubtitleIssues []string
	Elapsed        time.Duration
}
