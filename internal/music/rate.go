package music

import (
	"path/filepath"
	"strconv"
	"strings"
)

// ParseEncodedRate extracts the rate encoded in a track filename.
//
// The extension is removed before splitting on "_" so that "b_140.mp3"
// encodes 140. The second token must parse as a base-10 integer with an
// optional sign and no surrounding whitespace.
func ParseEncodedRate(name string) (int, error) {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	tokens := strings.Split(stem, "_")
	if len(tokens) < 2 {
		return 0, &MalformedFilenameError{Name: base, Reason: "missing second underscore-delimited segment"}
	}
	rate, err := strconv.Atoi(tokens[1])
	if err != nil {
		return 0, &MalformedFilenameError{Name: base, Reason: "second segment " + strconv.Quote(tokens[1]) + " is not an integer", Err: err}
	}
	return rate, nil
}

// distance is |rate - target| computed without overflowing int.
func distance(rate, target int) uint64 {
	if rate >= target {
		return uint64(rate) - uint64(target)
	}
	return uint64(target) - uint64(rate)
}
