package music

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyDirectory reports a music directory with no regular files.
	ErrEmptyDirectory = errors.New("music directory contains no candidate files")
	// ErrMalformedFilename matches any *MalformedFilenameError.
	ErrMalformedFilename = errors.New("malformed music filename")
)

// MalformedFilenameError identifies a candidate whose name does not encode a
// parseable rate.
type MalformedFilenameError struct {
	Name   string
	Reason string
	Err    error
}

func (e *MalformedFilenameError) Error() string {
	if e == nil {
		return ErrMalformedFilename.Error()
	}
	msg := fmt.Sprintf("%s %q: %s", ErrMalformedFilename.Error(), e.Name, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is lets errors.Is match ErrMalformedFilename.
func (e *MalformedFilenameError) Is(target error) bool {
	return target == ErrMalformedFilename
}

func (e *MalformedFilenameError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
