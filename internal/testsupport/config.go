package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"automontage/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose directories live under a per-test temp
// dir. The music directory is created empty; the output directory is not.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.InputVideo = filepath.Join(base, "input", "clip.mp4")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.MusicDir = filepath.Join(base, "music")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Transcription.APIKey = "test"
	cfgVal.Transcription.CredentialsFile = ""

	if err := os.MkdirAll(cfgVal.Paths.MusicDir, 0o755); err != nil {
		t.Fatalf("mkdir music dir: %v", err)
	}

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithMusic creates empty track files with the given names in the music dir.
func WithMusic(names ...string) ConfigOption {
	return func(b *configBuilder) {
		for _, name := range names {
			WriteFile(b.t, filepath.Join(b.cfg.Paths.MusicDir, name), 16)
		}
	}
}

// WithInputVideo writes a placeholder input video of the given size.
func WithInputVideo(size int64) ConfigOption {
	return func(b *configBuilder) {
		WriteFile(b.t, b.cfg.Paths.InputVideo, size)
	}
}

// WithTargetRate overrides music.target_rate.
func WithTargetRate(rate int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Music.TargetRate = rate
	}
}

// WithStubbedBinaries writes stub executables that exit 0 and prepends them
// to PATH. With no names, ffmpeg and ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		dir := filepath.Join(b.baseDir, "bin")
		for _, name := range names {
			WriteScript(b.t, dir, name, "exit 0\n")
		}
		PrependPath(b.t, dir)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}
