package music

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Lister returns the names of the regular files directly inside dir, in
// directory-listing order.
type Lister interface {
	List(ctx context.Context, dir string) ([]string, error)
}

// ListerFunc adapts a function to the Lister interface.
type ListerFunc func(ctx context.Context, dir string) ([]string, error)

func (f ListerFunc) List(ctx context.Context, dir string) ([]string, error) {
	return f(ctx, dir)
}

// OSLister lists a real directory. Entries keep the order the operating
// system returns them in; os.ReadDir would sort by name instead. Symlinks are
// followed, so a link to a regular file counts as a candidate.
type OSLister struct{}

func (OSLister) List(ctx context.Context, dir string) ([]string, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("open music directory: %w", err)
	}
	defer f.Close()

	entries, err := f.ReadDir(-1)
	if err != nil {
		return nil, fmt.Errorf("read music directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !isRegular(dir, entry) {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

func isRegular(dir string, entry fs.DirEntry) bool {
	mode := entry.Type()
	if mode.IsRegular() {
		return true
	}
	if mode&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, entry.Name()))
	return err == nil && info.Mode().IsRegular()
}
