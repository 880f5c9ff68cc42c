package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"automontage/internal/config"
	"automontage/internal/testsupport"
)

const (
	ffprobeStub = `case "$1" in
-version) echo "ffprobe version 6.1.1 Copyright (c) 2007-2023"; exit 0 ;;
esac
cat <<'JSON'
{"streams":[{"index":0,"codec_type":"video","avg_frame_rate":"30/1"},{"index":1,"codec_type":"audio"}],"format":{"duration":"4.000000"}}
JSON
`
	// ffmpegStub writes a placeholder to its last argument, which is the
	// output path for both extraction and rendering.
	ffmpegStub = `case "$1" in
-version) echo "ffmpeg version 6.1.1 Copyright (c) 2000-2023"; exit 0 ;;
esac
for last; do :; done
printf 'media' > "$last"
`
)

type cliTestEnv struct {
	cfg          *config.Config
	configPath   string
	speechCalls  *atomic.Int32
	speechServer *httptest.Server
}

func setupCLITestEnv(t *testing.T, music ...string) *cliTestEnv {
	t.Helper()

	if len(music) == 0 {
		music = []string{"a_100_slow.mp3", "b_140_calm.mp3", "c_200_fast.mp3"}
	}
	cfg := testsupport.NewConfig(t, testsupport.WithInputVideo(128), testsupport.WithMusic(music...))
	base := testsupport.BaseDir(cfg)

	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	t.Setenv("GOOGLE_API_KEY", "")

	binDir := filepath.Join(base, "stubs")
	testsupport.WriteScript(t, binDir, "ffprobe", ffprobeStub)
	testsupport.WriteScript(t, binDir, "ffmpeg", ffmpegStub)
	testsupport.PrependPath(t, binDir)

	calls := new(atomic.Int32)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"alternatives":[{"transcript":"hello there","confidence":0.9}]},{"alternatives":[{"transcript":"general kenobi","confidence":0.8}]}]}`))
	}))
	t.Cleanup(srv.Close)
	cfg.Transcription.BaseURL = srv.URL

	env := &cliTestEnv{
		cfg:          cfg,
		configPath:   filepath.Join(base, "automontage.toml"),
		speechCalls:  calls,
		speechServer: srv,
	}
	env.writeConfig(t)
	return env
}

func (e *cliTestEnv) writeConfig(t *testing.T) {
	t.Helper()
	data, err := toml.Marshal(e.cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(e.configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
