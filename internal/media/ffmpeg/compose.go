package ffmpeg

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"automontage/internal/logging"
	"automontage/internal/services"
	"automontage/internal/subtitles"
)

// Encoder defaults applied to blank ComposeRequest fields.
const (
	DefaultVideoCodec = "libx264"
	DefaultAudioCodec = "aac"
	DefaultCRF        = 23
	DefaultPreset     = "medium"
	DefaultFontSize   = 24
	DefaultFontColor  = "white"
	DefaultMargin     = 40
)

// ComposeRequest describes the final render.
type ComposeRequest struct {
	VideoPath string
	// MusicPath replaces (or is mixed under) the soundtrack. Empty keeps the
	// source audio untouched.
	MusicPath string
	// CaptionFile holds the wrapped caption text for drawtext. Empty skips the overlay.
	CaptionFile string
	OutputPath  string

	VideoCodec   string
	AudioCodec   string
	CRF          int
	Preset       string
	FontSize     int
	FontColor    string
	FontFile     string
	BottomMargin int

	MusicVolume       float64
	KeepOriginalAudio bool
	// SourceHasAudio gates amix; a silent source cannot be mixed.
	SourceHasAudio bool

	Duration time.Duration
	Progress ProgressFunc
}

// Composer implements audio extraction and the final render on top of an Executor.
type Composer struct {
	exec   *Executor
	logger *slog.Logger
}

// NewComposer wraps exec.
func NewComposer(exec *Executor, logger *slog.Logger) *Composer {
	return &Composer{exec: exec, logger: logging.NewComponentLogger(logger, "composer")}
}

// ExtractAudioArgs builds the arguments for a mono 16-bit PCM WAV at sampleRate.
func ExtractAudioArgs(videoPath, wavPath string, sampleRate int) []string {
	return []string{
		"-i", videoPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", "1",
		wavPath,
	}
}

// ExtractAudio writes the video's audio track as LINEAR16 mono WAV.
func (c *Composer) ExtractAudio(ctx context.Context, videoPath, wavPath string, sampleRate int) error {
	if sampleRate <= 0 {
		return services.Wrap(services.ErrValidation, "extract", "sample rate", fmt.Sprintf("Invalid sample rate %d", sampleRate), nil)
	}
	c.logger.Info("extracting audio",
		logging.String("input", videoPath),
		logging.String("output", wavPath),
		logging.Int("sample_rate", sampleRate),
	)
	return c.exec.Run(ctx, RunOptions{Stage: "extract", Args: ExtractAudioArgs(videoPath, wavPath, sampleRate)})
}

// Compose renders req.OutputPath.
func (c *Composer) Compose(ctx context.Context, req ComposeRequest) error {
	args, err := ComposeArgs(req)
	if err != nil {
		return err
	}
	c.logger.Info("rendering montage",
		logging.String("input", req.VideoPath),
		logging.String("music", req.MusicPath),
		logging.String("output", req.OutputPath),
		logging.Bool("mix_original_audio", mixesOriginal(req)),
	)
	return c.exec.Run(ctx, RunOptions{
		Stage:    "compose",
		Args:     args,
		Duration: req.Duration,
		Progress: req.Progress,
	})
}

// ComposeArgs builds the ffmpeg arguments for req.
func ComposeArgs(req ComposeRequest) ([]string, error) {
	if strings.TrimSpace(req.VideoPath) == "" || strings.TrimSpace(req.OutputPath) == "" {
		return nil, services.Wrap(services.ErrValidation, "compose", "arguments", "Video and output paths are required", nil)
	}
	if req.MusicVolume < 0 {
		return nil, services.Wrap(services.ErrValidation, "compose", "arguments", "Music volume must not be negative", nil)
	}
	applyDefaults(&req)

	args := []string{"-i", req.VideoPath}
	hasMusic := strings.TrimSpace(req.MusicPath) != ""
	if hasMusic {
		args = append(args, "-stream_loop", "-1", "-i", req.MusicPath)
	}

	var graph []string
	videoOut := "0:v:0"
	if strings.TrimSpace(req.CaptionFile) != "" {
		graph = append(graph, "[0:v]"+drawtextFilter(req)+"[v]")
		videoOut = "[v]"
	}

	audioOut := ""
	switch {
	case hasMusic && mixesOriginal(req):
		graph = append(graph,
			"[1:a]"+volumeFilter(req.MusicVolume)+"[m]",
			"[0:a][m]amix=inputs=2:duration=first:dropout_transition=0[a]",
		)
		audioOut = "[a]"
	case hasMusic && req.MusicVolume != 1:
		graph = append(graph, "[1:a]"+volumeFilter(req.MusicVolume)+"[a]")
		audioOut = "[a]"
	case hasMusic:
		audioOut = "1:a:0"
	default:
		audioOut = "0:a?"
	}

	if len(graph) > 0 {
		args = append(args, "-filter_complex", strings.Join(graph, ";"))
	}
	args = append(args, "-map", videoOut, "-map", audioOut)
	args = append(args,
		"-c:v", req.VideoCodec,
		"-crf", strconv.Itoa(req.CRF),
		"-preset", req.Preset,
		"-c:a", req.AudioCodec,
	)
	if hasMusic {
		args = append(args, "-shortest")
	}
	args = append(args, "-movflags", "+faststart", req.OutputPath)
	return args, nil
}

func applyDefaults(req *ComposeRequest) {
	if strings.TrimSpace(req.VideoCodec) == "" {
		req.VideoCodec = DefaultVideoCodec
	}
	if strings.TrimSpace(req.AudioCodec) == "" {
		req.AudioCodec = DefaultAudioCodec
	}
	if req.CRF <= 0 {
		req.CRF = DefaultCRF
	}
	if strings.TrimSpace(req.Preset) == "" {
		req.Preset = DefaultPreset
	}
	if req.FontSize <= 0 {
		req.FontSize = DefaultFontSize
	}
	if strings.TrimSpace(req.FontColor) == "" {
		req.FontColor = DefaultFontColor
	}
	if req.BottomMargin < 0 {
		req.BottomMargin = DefaultMargin
	}
}

func mixesOriginal(req ComposeRequest) bool {
	return req.KeepOriginalAudio && req.SourceHasAudio && strings.TrimSpace(req.MusicPath) != ""
}

// drawtextFilter centres the caption horizontally at the bottom of the frame
// for the whole clip. Expansion is off so a literal "%" in the transcript is
// drawn as-is.
func drawtextFilter(req ComposeRequest) string {
	opts := []string{
		"textfile=" + subtitles.EscapeFilterPath(req.CaptionFile),
		"fontsize=" + strconv.Itoa(req.FontSize),
		"fontcolor=" + subtitles.EscapeFilterPath(req.FontColor),
		"expansion=none",
		"line_spacing=4",
		"x=(w-text_w)/2",
		"y=h-text_h-" + strconv.Itoa(req.BottomMargin),
	}
	if font := strings.TrimSpace(req.FontFile); font != "" {
		opts = append(opts, "fontfile="+subtitles.EscapeFilterPath(font))
	}
	return "drawtext=" + strings.Join(opts, ":")
}

func volumeFilter(v float64) string {
	return "volume=" + strconv.FormatFloat(v, 'f', -1, 64)
}
