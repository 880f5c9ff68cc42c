// Package music chooses background tracks from a music directory.
//
// Track filenames encode a nominal rate as their second underscore-delimited
// token ("music_150_calm.mp3" encodes 150). Selector returns the track whose
// encoded rate is closest to a target, breaking ties by directory-listing
// order. Catalog is the lenient counterpart used for listings: it reports
// every file, its parsed rate or parse error, and any embedded tag metadata.
package music
