// Package ffmpeg drives the ffmpeg binary for the montage pipeline.
//
// Executor runs ffmpeg with machine-readable progress on stderr and keeps a
// bounded tail of its log for error reports. Composer builds on it to extract
// transcription audio and to render the final video: caption burned in with
// drawtext, background music looped or trimmed to the clip, H.264/AAC out.
package ffmpeg
