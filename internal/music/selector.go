package music

import (
	"cmp"
	"context"
	"fmt"
	"path/filepath"
	"slices"
)

// Candidate is a track file with its encoded rate.
type Candidate struct {
	Name string
	Path string
	Rate int
}

// Selector picks the track whose encoded rate is closest to a target.
type Selector struct {
	Lister Lister
}

// NewSelector returns a selector backed by lister, or by OSLister when nil.
func NewSelector(lister Lister) *Selector {
	if lister == nil {
		lister = OSLister{}
	}
	return &Selector{Lister: lister}
}

// Select returns the full path of the file in dir whose encoded rate has the
// smallest absolute difference to target. Ties go to the file listed first.
//
// The first malformed filename in listing order aborts the call with a
// *MalformedFilenameError; an empty directory yields ErrEmptyDirectory.
func (s *Selector) Select(ctx context.Context, dir string, target int) (string, error) {
	candidates, err := s.Candidates(ctx, dir)
	if err != nil {
		return "", err
	}
	best, err := Nearest(candidates, target)
	if err != nil {
		return "", err
	}
	return best.Path, nil
}

// Candidates lists dir and parses every name, stopping at the first
// malformed one.
func (s *Selector) Candidates(ctx context.Context, dir string) ([]Candidate, error) {
	lister := s.Lister
	if lister == nil {
		lister = OSLister{}
	}
	names, err := lister.List(ctx, dir)
	if err != nil {
		return nil, err
	}
	candidates := make([]Candidate, 0, len(names))
	for _, name := range names {
		rate, err := ParseEncodedRate(name)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, Candidate{
			Name: name,
			Path: filepath.Join(dir, name),
			Rate: rate,
		})
	}
	return candidates, nil
}

// Nearest orders candidates by distance to target with a stable sort and
// returns the first. The input slice is not modified.
func Nearest(candidates []Candidate, target int) (Candidate, error) {
	if len(candidates) == 0 {
		return Candidate{}, ErrEmptyDirectory
	}
	ordered := slices.Clone(candidates)
	slices.SortStableFunc(ordered, func(a, b Candidate) int {
		return cmp.Compare(distance(a.Rate, target), distance(b.Rate, target))
	})
	return ordered[0], nil
}

// SelectNearest runs Select against the real filesystem.
func SelectNearest(ctx context.Context, dir string, target int) (string, error) {
	path, err := NewSelector(nil).Select(ctx, dir, target)
	if err != nil {
		return "", fmt.Errorf("select music: %w", err)
	}
	return path, nil
}
