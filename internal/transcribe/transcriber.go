package transcribe

import (
	"context"
	"strings"
)

// Segment is one recognised result, in response order.
type Segment struct {
	Text       string
	Confidence float64
}

// Transcript bundles the recognised segments and their joined text.
type Transcript struct {
	Text     string
	Segments []Segment
	Language string
}

// Transcriber converts a mono LINEAR16 WAV file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (Transcript, error)
}

// JoinSegments concatenates segment text with single spaces, skipping blanks.
func JoinSegments(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
