// Package ffprobe runs ffprobe and decodes its JSON report.
//
// The montage pipeline probes the copied video once to learn its duration
// (for the transcript sidecar and render progress) and whether it carries an
// audio stream worth extracting.
package ffprobe
