// Package history records every montage run in a SQLite database.
//
// Each run is inserted when it starts (status "running") and updated once
// with its outcome, so an interrupted run remains visible as "running". The
// schema lives in schema.sql and is versioned; a mismatched database must be
// deleted rather than migrated. Writes retry briefly on SQLITE_BUSY so a
// concurrent `automontage history` read never fails a run.
package history
