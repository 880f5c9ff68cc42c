package music

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Entry describes one file in a music directory for display.
type Entry struct {
	Name     string
	Path     string
	Rate     int
	RateErr  error
	Distance uint64
	Title    string
	Artist   string
	Album    string
	Format   string
}

// Valid reports whether the entry encodes a usable rate.
func (e Entry) Valid() bool {
	return e.RateErr == nil
}

// TagReader loads embedded audio metadata. Tests swap it for a stub.
type TagReader func(path string) (tag.Metadata, error)

// ReadTags opens path and parses ID3/MP4/FLAC/OGG tags.
func ReadTags(path string) (tag.Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return tag.ReadFrom(f)
}

// Catalog lists every regular file in dir with its rate and distance to
// target. Malformed names are reported on the entry rather than aborting.
// A nil reader skips tag parsing.
func Catalog(ctx context.Context, lister Lister, reader TagReader, dir string, target int) ([]Entry, error) {
	if lister == nil {
		lister = OSLister{}
	}
	names, err := lister.List(ctx, dir)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entry := Entry{Name: name, Path: filepath.Join(dir, name)}
		if rate, err := ParseEncodedRate(name); err != nil {
			entry.RateErr = err
		} else {
			entry.Rate = rate
			entry.Distance = distance(rate, target)
		}
		if reader != nil {
			if meta, err := reader(entry.Path); err == nil && meta != nil {
				entry.Title = strings.TrimSpace(meta.Title())
				entry.Artist = strings.TrimSpace(meta.Artist())
				entry.Album = strings.TrimSpace(meta.Album())
				entry.Format = string(meta.FileType())
			}
		}
		if entry.Title == "" {
			entry.Title = DisplayTitle(name)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// DisplayTitle derives a human title from the filename tail after the rate
// token: "music_150_calm_piano.mp3" becomes "Calm Piano". Names without a
// tail fall back to the stem.
func DisplayTitle(name string) string {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	tokens := strings.Split(stem, "_")
	if len(tokens) <= 2 {
		return stem
	}
	text := strings.TrimSpace(strings.Join(tokens[2:], " "))
	if text == "" {
		return stem
	}
	return cases.Title(language.English).String(text)
}
