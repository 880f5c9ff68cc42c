package fileutil

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CopyResult describes a completed verified copy.
type CopyResult struct {
	Bytes  int64
	SHA256 string
}

// CopyVerified copies src to dst through a temporary file in dst's
// directory, then re-reads the destination and compares size and SHA-256
// against the source stream. A mismatch removes the copy. dst is replaced
// atomically, so a failed copy never leaves a partial file behind.
func CopyVerified(ctx context.Context, src, dst string) (CopyResult, error) {
	in, err := os.Open(src)
	if err != nil {
		return CopyResult{}, fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return CopyResult{}, fmt.Errorf("stat source: %w", err)
	}
	if !info.Mode().IsRegular() {
		return CopyResult{}, fmt.Errorf("copy source %s: not a regular file", src)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return CopyResult{}, fmt.Errorf("create destination: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	srcHasher := sha256.New()
	written, err := io.Copy(tmp, io.TeeReader(&ctxReader{ctx: ctx, r: in}, srcHasher))
	if err != nil {
		return CopyResult{}, fmt.Errorf("copy data: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return CopyResult{}, fmt.Errorf("sync destination: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return CopyResult{}, fmt.Errorf("close destination: %w", err)
	}
	if written != info.Size() {
		return CopyResult{}, fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", info.Size(), written)
	}

	dstSum, err := hashFile(tmpName)
	if err != nil {
		return CopyResult{}, err
	}
	srcSum := hex.EncodeToString(srcHasher.Sum(nil))
	if dstSum != srcSum {
		return CopyResult{}, fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}

	if err := os.Chmod(tmpName, info.Mode().Perm()); err != nil {
		return CopyResult{}, fmt.Errorf("chmod destination: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return CopyResult{}, fmt.Errorf("commit destination: %w", err)
	}
	committed = true
	return CopyResult{Bytes: written, SHA256: srcSum}, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("reopen destination: %w", err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash destination: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ctxReader stops a long copy once ctx is cancelled.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
