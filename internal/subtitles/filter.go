package subtitles

import "strings"

var filterValueReplacer = strings.NewReplacer(
	`\`, `\\`,
	`:`, `\:`,
	`'`, `\'`,
	`,`, `\,`,
	`;`, `\;`,
	`[`, `\[`,
	`]`, `\]`,
)

// EscapeFilterPath escapes a filesystem path (or any option value) for use
// as an unquoted filter option inside an ffmpeg filtergraph.
func EscapeFilterPath(path string) string {
	return filterValueReplacer.Replace(path)
}
