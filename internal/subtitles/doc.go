// Package subtitles prepares transcript text for rendering.
//
// WrapCaption and WriteCaptionFile lay out the caption burned into the video
// by ffmpeg's drawtext filter, EscapeFilterPath makes a path safe inside a
// filtergraph, and the SRT helpers write and check the transcript sidecar
// that ships next to the rendered video.
package subtitles
