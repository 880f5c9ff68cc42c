package ffprobe

import (
	"context"
	"errors"
	"testing"
	"time"

	"automontage/internal/services"
	"automontage/internal/testsupport"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "audio"},
			{CodecType: "video", Width: 1920, Height: 1080, AvgFrameRate: "30000/1001"},
		},
		Format: Format{Duration: "12.5", Size: "1000"},
	}
	if !result.HasAudio() {
		t.Fatal("expected audio stream")
	}
	v, ok := result.Video()
	if !ok || v.Width != 1920 {
		t.Fatalf("unexpected video stream %+v", v)
	}
	if result.DurationSeconds() != 12.5 || result.Duration() != 12500*time.Millisecond {
		t.Fatalf("unexpected duration %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size %d", result.SizeBytes())
	}
	if fr := result.FrameRate(); fr < 29.96 || fr > 29.98 {
		t.Fatalf("unexpected frame rate %v", fr)
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "video", Duration: "7", AvgFrameRate: "0/0"}},
		Format:  Format{Duration: "bad", Size: "-1"},
	}
	if result.DurationSeconds() != 7 {
		t.Fatalf("expected stream duration fallback, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if result.FrameRate() != 0 {
		t.Fatalf("expected frame rate 0, got %v", result.FrameRate())
	}
	if (Result{}).HasAudio() {
		t.Fatal("empty result has no audio")
	}
}

func TestInspectDecodesStubOutput(t *testing.T) {
	dir := t.TempDir()
	bin := testsupport.WriteScript(t, dir, "ffprobe", `cat <<'JSON'
{"streams":[{"index":0,"codec_type":"video","codec_name":"h264","width":640,"height":360},{"index":1,"codec_type":"audio","codec_name":"aac"}],
 "format":{"filename":"in.mp4","nb_streams":2,"duration":"3.000000","format_name":"mov,mp4"}}
JSON
`)
	result, err := Inspect(context.Background(), bin, "in.mp4")
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if result.DurationSeconds() != 3 || !result.HasAudio() || result.Format.NBStreams != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestInspectFailureIsExternalTool(t *testing.T) {
	dir := t.TempDir()
	bin := testsupport.WriteScript(t, dir, "ffprobe", "echo 'in.mp4: No such file' >&2\nexit 1\n")
	_, err := Inspect(context.Background(), bin, "in.mp4")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if _, err := Inspect(context.Background(), bin, " "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty path, got %v", err)
	}
}
