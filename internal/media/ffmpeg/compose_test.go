package ffmpeg

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"automontage/internal/services"
	"automontage/internal/subtitles"
)

func argAfter(args []string, flag string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func mapTargets(args []string) []string {
	var out []string
	for i := 0; i+1 < len(args); i++ {
		if args[i] == "-map" {
			out = append(out, args[i+1])
		}
	}
	return out
}

func TestExtractAudioArgs(t *testing.T) {
	got := ExtractAudioArgs("/out/video_copy.mp4", "/out/video_audio.wav", 16000)
	want := []string{"-i", "/out/video_copy.mp4", "-vn", "-acodec", "pcm_s16le", "-ar", "16000", "-ac", "1", "/out/video_audio.wav"}
	if !slices.Equal(got, want) {
		t.Fatalf("ExtractAudioArgs = %q, want %q", got, want)
	}
}

func TestComposeArgsMusicReplacesSoundtrack(t *testing.T) {
	args, err := ComposeArgs(ComposeRequest{
		VideoPath:      "/out/video_copy.mp4",
		MusicPath:      "/music/b_140.mp3",
		CaptionFile:    "/out/caption.txt",
		OutputPath:     "/out/output_video.mp4",
		MusicVolume:    1,
		SourceHasAudio: true,
	})
	if err != nil {
		t.Fatalf("ComposeArgs returned error: %v", err)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-stream_loop -1 -i /music/b_140.mp3") {
		t.Fatalf("music input must loop: %s", joined)
	}
	graph := argAfter(args, "-filter_complex")
	for _, want := range []string{"[0:v]drawtext=textfile=/out/caption.txt", "fontsize=24", "fontcolor=white", "x=(w-text_w)/2", "y=h-text_h-0", "[v]"} {
		if !strings.Contains(graph, want) {
			t.Fatalf("filter graph missing %q: %s", want, graph)
		}
	}
	if strings.Contains(graph, "amix") {
		t.Fatalf("default mode must not mix original audio: %s", graph)
	}
	if got := mapTargets(args); !slices.Equal(got, []string{"[v]", "1:a:0"}) {
		t.Fatalf("unexpected maps %q", got)
	}
	if argAfter(args, "-c:v") != "libx264" || argAfter(args, "-c:a") != "aac" || argAfter(args, "-crf") != "23" || argAfter(args, "-preset") != "medium" {
		t.Fatalf("unexpected codec args: %s", joined)
	}
	if !slices.Contains(args, "-shortest") {
		t.Fatalf("expected -shortest with music: %s", joined)
	}
	if args[len(args)-1] != "/out/output_video.mp4" {
		t.Fatalf("output must be last, got %q", args[len(args)-1])
	}
}

func TestComposeArgsMixesOriginalAudio(t *testing.T) {
	args, err := ComposeArgs(ComposeRequest{
		VideoPath:         "in.mp4",
		MusicPath:         "m_1.mp3",
		OutputPath:        "out.mp4",
		MusicVolume:       0.35,
		KeepOriginalAudio: true,
		SourceHasAudio:    true,
		VideoCodec:        "libx265",
		CRF:               28,
		Preset:            "fast",
		FontFile:          "/fonts/My Font.ttf",
	})
	if err != nil {
		t.Fatalf("ComposeArgs returned error: %v", err)
	}
	graph := argAfter(args, "-filter_complex")
	if graph != "[1:a]volume=0.35[m];[0:a][m]amix=inputs=2:duration=first:dropout_transition=0[a]" {
		t.Fatalf("unexpected graph %q", graph)
	}
	if got := mapTargets(args); !slices.Equal(got, []string{"0:v:0", "[a]"}) {
		t.Fatalf("unexpected maps %q", got)
	}
	if argAfter(args, "-c:v") != "libx265" || argAfter(args, "-crf") != "28" || argAfter(args, "-preset") != "fast" {
		t.Fatalf("codec overrides ignored: %q", args)
	}
}

func TestComposeArgsSilentSourceFallsBackToMusicOnly(t *testing.T) {
	args, err := ComposeArgs(ComposeRequest{
		VideoPath:         "in.mp4",
		MusicPath:         "m_1.mp3",
		OutputPath:        "out.mp4",
		MusicVolume:       0.5,
		KeepOriginalAudio: true,
	})
	if err != nil {
		t.Fatalf("ComposeArgs returned error: %v", err)
	}
	if graph := argAfter(args, "-filter_complex"); graph != "[1:a]volume=0.5[a]" {
		t.Fatalf("unexpected graph %q", graph)
	}
}

func TestComposeArgsWithoutMusicOrCaption(t *testing.T) {
	args, err := ComposeArgs(ComposeRequest{VideoPath: "in.mp4", OutputPath: "out.mp4", BottomMargin: -1})
	if err != nil {
		t.Fatalf("ComposeArgs returned error: %v", err)
	}
	if slices.Contains(args, "-filter_complex") || slices.Contains(args, "-shortest") || slices.Contains(args, "-stream_loop") {
		t.Fatalf("unexpected filter or music args: %q", args)
	}
	if got := mapTargets(args); !slices.Equal(got, []string{"0:v:0", "0:a?"}) {
		t.Fatalf("unexpected maps %q", got)
	}
}

func TestComposeArgsValidation(t *testing.T) {
	if _, err := ComposeArgs(ComposeRequest{OutputPath: "out.mp4"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for missing video, got %v", err)
	}
	if _, err := ComposeArgs(ComposeRequest{VideoPath: "in.mp4", OutputPath: "out.mp4", MusicVolume: -1}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for negative volume, got %v", err)
	}
}

func TestDrawtextFilterEscapesPaths(t *testing.T) {
	filter := drawtextFilter(ComposeRequest{
		CaptionFile:  `/tmp/a:b/caption.txt`,
		FontSize:     30,
		FontColor:    "yellow",
		FontFile:     "/fonts/x.ttf",
		BottomMargin: 40,
	})
	if !strings.HasPrefix(filter, `drawtext=textfile=/tmp/a\:b/caption.txt:fontsize=30:fontcolor=yellow`) {
		t.Fatalf("unexpected filter %q", filter)
	}
	if !strings.HasSuffix(filter, "y=h-text_h-40:fontfile=/fonts/x.ttf") {
		t.Fatalf("unexpected filter tail %q", filter)
	}
}

func TestComposeArgsDrawsPercentLiterally(t *testing.T) {
	caption := filepath.Join(t.TempDir(), "caption.txt")
	if err := subtitles.WriteCaptionFile(caption, "50% of runs finish early", 0); err != nil {
		t.Fatalf("WriteCaptionFile: %v", err)
	}
	data, err := os.ReadFile(caption)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "50% of") {
		t.Fatalf("caption must keep the percent sign verbatim: %q", data)
	}

	args, err := ComposeArgs(ComposeRequest{
		VideoPath:   "/out/video_copy.mp4",
		MusicPath:   "/music/b_140.mp3",
		CaptionFile: caption,
		OutputPath:  "/out/output_video.mp4",
		MusicVolume: 1,
	})
	if err != nil {
		t.Fatalf("ComposeArgs returned error: %v", err)
	}
	graph := argAfter(args, "-filter_complex")
	if !strings.Contains(graph, ":expansion=none:") {
		t.Fatalf("drawtext must disable text expansion: %s", graph)
	}
}
