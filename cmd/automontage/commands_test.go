package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"automontage/internal/history"
	"automontage/internal/montage"
	"automontage/internal/music"
	"automontage/internal/services"
)

func TestRunCommandRendersMontage(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"run"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	outputDir := env.cfg.Paths.OutputDir
	requireContains(t, out, filepath.Join(outputDir, montage.OutputFileName))
	requireContains(t, out, "b_140_calm.mp3")
	requireContains(t, out, "Transcript: 26 chars")

	if env.speechCalls.Load() != 1 {
		t.Fatalf("expected one speech request, got %d", env.speechCalls.Load())
	}
	for _, name := range []string{"video_copy.mp4", montage.AudioFileName, montage.CaptionFileName, montage.SubtitleFileName, montage.OutputFileName} {
		if _, err := os.Stat(filepath.Join(outputDir, name)); err != nil {
			t.Fatalf("expected artefact %s: %v", name, err)
		}
	}
	caption, err := os.ReadFile(filepath.Join(outputDir, montage.CaptionFileName))
	if err != nil {
		t.Fatal(err)
	}
	if string(caption) != "hello there general kenobi" {
		t.Fatalf("unexpected caption %q", caption)
	}

	logs, err := filepath.Glob(filepath.Join(env.cfg.Paths.LogDir, "automontage-*.log"))
	if err != nil || len(logs) != 1 {
		t.Fatalf("expected one run log, got %v (err=%v)", logs, err)
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "completed")
	requireContains(t, out, montage.OutputFileName)
}

func TestRunCommandFlagsOverrideConfig(t *testing.T) {
	env := setupCLITestEnv(t)
	altOut := filepath.Join(t.TempDir(), "elsewhere")

	out, _, err := runCLI(t, []string{"run", "--output-dir", altOut, "--target-rate", "190"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	requireContains(t, out, "c_200_fast.mp3")
	requireContains(t, out, "target rate 190")
	if _, err := os.Stat(filepath.Join(altOut, montage.OutputFileName)); err != nil {
		t.Fatalf("expected output in override dir: %v", err)
	}
}

func TestRunCommandDryRun(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"run", "--dry-run"}, env.configPath)
	if err != nil {
		t.Fatalf("run --dry-run: %v", err)
	}
	requireContains(t, out, "Dry run complete")
	if _, err := os.Stat(filepath.Join(env.cfg.Paths.OutputDir, montage.OutputFileName)); !os.IsNotExist(err) {
		t.Fatalf("dry run must not render, stat err=%v", err)
	}
}

func TestRunCommandRefusesOnPreflightFailure(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Transcription.APIKey = ""
	env.writeConfig(t)

	out, _, err := runCLI(t, []string{"run"}, env.configPath)
	if err == nil {
		t.Fatal("expected preflight failure")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	requireContains(t, out, "Speech credentials")
	if env.speechCalls.Load() != 0 {
		t.Fatal("speech API must not be called when preflight fails")
	}
}

func TestRunCommandMalformedMusicRecordsFailure(t *testing.T) {
	env := setupCLITestEnv(t, "a_100.mp3", "track.mp3")

	_, _, err := runCLI(t, []string{"run"}, env.configPath)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	store, err := history.Open(context.Background(), env.cfg.HistoryPath())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	runs, err := store.List(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Status != history.StatusFailed || runs[0].ErrorKind != "validation" {
		t.Fatalf("unexpected history %+v", runs)
	}

	out, _, err := runCLI(t, []string{"history", "show", runs[0].ID[:8]}, env.configPath)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	requireContains(t, out, "Status:      failed")
	requireContains(t, out, "malformed music filename")
}

func TestMusicListMarksSelection(t *testing.T) {
	env := setupCLITestEnv(t, "x_80_intro.mp3", "y_220_outro.mp3")

	out, _, err := runCLI(t, []string{"music", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("music list: %v", err)
	}
	requireContains(t, out, "Intro")
	requireContains(t, out, "70")
	requireContains(t, out, "Selected for target rate 150: ")

	pick, _, err := runCLI(t, []string{"music", "pick"}, env.configPath)
	if err != nil {
		t.Fatalf("music pick: %v", err)
	}
	selected := strings.TrimSpace(pick)
	if !strings.HasSuffix(out, filepath.Base(selected)+"\n") {
		t.Fatalf("list selection and pick disagree: list=%q pick=%q", out, selected)
	}
}

func TestMusicListFlagsInvalidNames(t *testing.T) {
	env := setupCLITestEnv(t, "a_100.mp3", "readme.txt")

	out, _, err := runCLI(t, []string{"music", "list", "--target-rate", "90"}, env.configPath)
	if err != nil {
		t.Fatalf("music list: %v", err)
	}
	requireContains(t, out, "invalid")
	requireContains(t, out, "1 file(s) do not encode a rate")

	_, _, err = runCLI(t, []string{"music", "pick"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "readme.txt") {
		t.Fatalf("expected pick to fail on readme.txt, got %v", err)
	}
}

func TestTargetRateZeroIsHonoured(t *testing.T) {
	env := setupCLITestEnv(t, "a_0_zero.mp3", "b_140_calm.mp3")

	pick, _, err := runCLI(t, []string{"music", "pick", "--target-rate", "0"}, env.configPath)
	if err != nil {
		t.Fatalf("music pick: %v", err)
	}
	if filepath.Base(strings.TrimSpace(pick)) != "a_0_zero.mp3" {
		t.Fatalf("pick ignored --target-rate 0: %q", pick)
	}

	list, _, err := runCLI(t, []string{"music", "list", "--target-rate", "0"}, env.configPath)
	if err != nil {
		t.Fatalf("music list: %v", err)
	}
	requireContains(t, list, "Selected for target rate 0: a_0_zero.mp3")

	out, _, err := runCLI(t, []string{"run", "--dry-run", "--target-rate", "0"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	requireContains(t, out, "a_0_zero.mp3 (target rate 0)")

	pick, _, err = runCLI(t, []string{"music", "pick"}, env.configPath)
	if err != nil {
		t.Fatalf("music pick: %v", err)
	}
	if filepath.Base(strings.TrimSpace(pick)) != "b_140_calm.mp3" {
		t.Fatalf("pick without flag should use config target: %q", pick)
	}
}

func TestNearestEntryMatchesSelectorTieBreak(t *testing.T) {
	entries, err := music.Catalog(context.Background(),
		music.ListerFunc(func(context.Context, string) ([]string, error) {
			return []string{"x_80.mp3", "readme.txt", "y_220.mp3", "z_120.mp3"}, nil
		}), nil, "/m", 150)
	if err != nil {
		t.Fatal(err)
	}
	if got := nearestEntry(entries, 150); got != 3 {
		t.Fatalf("nearestEntry = %d, want 3 (z_120)", got)
	}
	if got := nearestEntry(entries, 150+70); got != 2 {
		t.Fatalf("nearestEntry = %d, want 2 (y_220)", got)
	}
	if got := nearestEntry(entries[:3], 150); got != 0 {
		t.Fatalf("tie must go to the first listed entry, got %d", got)
	}
	if got := nearestEntry(entries[1:2], 150); got != -1 {
		t.Fatalf("no valid entries should yield -1, got %d", got)
	}
}

func TestStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Readiness ==")
	requireContains(t, out, "[OK] "+env.configPath)
	requireContains(t, out, "6.1.1")
	requireContains(t, out, "0 completed, 0 failed, 0 running")
	if strings.Contains(out, "[ERROR]") {
		t.Fatalf("unexpected failing check:\n%s", out)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected refusal to overwrite without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
	out, _, err = runCLI(t, []string{"config", "validate"}, target)
	if err != nil {
		t.Fatalf("validate sample: %v", err)
	}
	requireContains(t, out, "no speech API credentials")
}
