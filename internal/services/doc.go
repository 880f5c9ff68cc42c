// Package services defines shared utilities consumed by the montage stages and
// their external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so failures carry a
//     classification (configuration, validation, external tool) that the CLI
//     and the run history can report.
package services
