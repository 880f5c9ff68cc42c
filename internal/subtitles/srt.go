package subtitles

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Cue is a single subtitle entry.
type Cue struct {
	Start float64
	End   float64
	Text  string
}

// FormatTimestamp renders seconds as HH:MM:SS,mmm, rounding to the nearest
// millisecond. Negative values clamp to zero.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	msTotal := int64(seconds*1000 + 0.5)
	hours := msTotal / 3_600_000
	msTotal %= 3_600_000
	minutes := msTotal / 60_000
	msTotal %= 60_000
	secs := msTotal / 1_000
	millis := msTotal % 1_000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// ParseTimestamp is the inverse of FormatTimestamp. A period is accepted in
// place of the comma.
func ParseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, errors.New("empty timestamp")
	}
	clock, millisText, ok := strings.Cut(strings.ReplaceAll(value, ".", ","), ",")
	if !ok {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(clock, ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(millisText)
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}

// WriteSRT writes cues to path, numbering them from 1. Cues with blank text
// are dropped.
func WriteSRT(path string, cues []Cue) error {
	var b strings.Builder
	index := 0
	for _, cue := range cues {
		text := strings.TrimSpace(cue.Text)
		if text == "" {
			continue
		}
		if cue.End < cue.Start {
			return fmt.Errorf("write srt: cue %d ends before it starts", index+1)
		}
		index++
		if index > 1 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n", index, FormatTimestamp(cue.Start), FormatTimestamp(cue.End), text)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	return nil
}

// WholeClipCue builds the single cue used for the transcript sidecar: the
// full text shown from zero to the end of the clip, wrapped to width.
func WholeClipCue(text string, durationSeconds float64, width int) Cue {
	return Cue{
		Start: 0,
		End:   durationSeconds,
		Text:  strings.Join(WrapCaption(text, width), "\n"),
	}
}

// CountCues returns the number of non-blank cue blocks in an SRT file.
func CountCues(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read srt: %w", err)
	}
	content := strings.TrimSpace(strings.ReplaceAll(string(data), "\r\n", "\n"))
	if content == "" {
		return 0, nil
	}
	count := 0
	for _, block := range strings.Split(content, "\n\n") {
		if strings.TrimSpace(block) != "" {
			count++
		}
	}
	return count, nil
}

// lastTimestamp returns the largest cue end time in the file.
func lastTimestamp(path string) (float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read srt: %w", err)
	}
	var last float64
	for _, line := range strings.Split(string(data), "\n") {
		_, end, ok := strings.Cut(line, "-->")
		if !ok {
			continue
		}
		seconds, err := ParseTimestamp(end)
		if err != nil {
			continue
		}
		if seconds > last {
			last = seconds
		}
	}
	return last, nil
}

// ValidateSRT checks a sidecar against the clip duration. It returns a list
// of issue codes; an empty result means the file passed.
func ValidateSRT(path string, videoSeconds float64) []string {
	cues, err := CountCues(path)
	if err != nil {
		return []string{fmt.Sprintf("read_error: %v", err)}
	}
	if cues == 0 {
		return []string{"empty_subtitle_file"}
	}
	var issues []string
	last, err := lastTimestamp(path)
	if err != nil {
		return append(issues, fmt.Sprintf("timestamp_parse_error: %v", err))
	}
	if last == 0 && videoSeconds > 0 {
		issues = append(issues, "no_valid_timestamps")
	}
	if videoSeconds > 0 && last > videoSeconds+0.5 {
		issues = append(issues, fmt.Sprintf("duration_mismatch: delta=%.1fs", last-videoSeconds))
	}
	return issues
}
