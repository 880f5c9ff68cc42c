package subtitles

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// WrapCaption greedily packs words into lines of at most width runes. Words
// longer than width get a line of their own and are never split. A width
// below one disables wrapping.
func WrapCaption(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if width < 1 {
		return []string{strings.Join(words, " ")}
	}

	var (
		lines   []string
		current strings.Builder
		length  int
	)
	for _, word := range words {
		n := utf8.RuneCountInString(word)
		if length > 0 && length+1+n > width {
			lines = append(lines, current.String())
			current.Reset()
			length = 0
		}
		if length > 0 {
			current.WriteByte(' ')
			length++
		}
		current.WriteString(word)
		length += n
	}
	if length > 0 {
		lines = append(lines, current.String())
	}
	return lines
}

// WriteCaptionFile writes the wrapped caption to path for drawtext's
// textfile option. The file ends without a trailing newline so drawtext
// does not render an empty last line.
func WriteCaptionFile(path, text string, width int) error {
	lines := WrapCaption(text, width)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return fmt.Errorf("write caption file: %w", err)
	}
	return nil
}
