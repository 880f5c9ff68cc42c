// Package preflight provides readiness checks for the paths, credentials and
// binaries a montage run depends on.
//
// These checks run in two contexts:
//   - `automontage run` calls RunAll first and refuses to start when any
//     check fails, so a missing music directory is reported before a long
//     copy and transcription.
//   - `automontage status` prints every check alongside the dependency report.
package preflight
