// Package montage runs the linear automontage pipeline: lock the output
// directory, copy and probe the source, extract and transcribe its audio,
// write the caption artefacts, pick a background track by encoded rate, and
// render the final MP4.
//
// Collaborators are narrow interfaces (Transcriber, VideoComposer,
// TrackSelector, Prober) so the pipeline is testable without ffmpeg or the
// speech API. Any stage failure aborts the run; nothing is retried.
package montage
