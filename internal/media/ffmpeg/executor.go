package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"automontage/internal/logging"
	"automontage/internal/services"
)

const stderrTailLines = 20

// RunOptions configures a single ffmpeg invocation.
type RunOptions struct {
	// Stage names the pipeline stage for error wrapping.
	Stage    string
	Args     []string
	Duration time.Duration
	Progress ProgressFunc
}

// Executor runs ffmpeg.
type Executor struct {
	binary string
	logger *slog.Logger
}

// NewExecutor returns an executor for binary ("ffmpeg" when empty).
func NewExecutor(binary string, logger *slog.Logger) *Executor {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Executor{binary: binary, logger: logging.NewComponentLogger(logger, "ffmpeg")}
}

// Binary returns the configured ffmpeg command.
func (e *Executor) Binary() string {
	return e.binary
}

// CommandArgs prefixes opts.Args with the flags every invocation uses.
func CommandArgs(args []string) []string {
	full := make([]string, 0, len(args)+8)
	full = append(full, "-y", "-hide_banner", "-nostdin", "-loglevel", "error", "-progress", "pipe:2", "-nostats")
	return append(full, args...)
}

// Run executes ffmpeg, streaming progress blocks to opts.Progress. Non-zero
// exits are returned as ErrExternalTool with the last lines of ffmpeg's log.
func (e *Executor) Run(ctx context.Context, opts RunOptions) error {
	if len(opts.Args) == 0 {
		return errors.New("ffmpeg run: no arguments provided")
	}
	args := CommandArgs(opts.Args)
	e.logger.Debug("executing ffmpeg", logging.String("binary", e.binary), logging.String("args", strings.Join(args, " ")))

	cmd := exec.CommandContext(ctx, e.binary, args...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stderr pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}

	started := time.Now()
	if err := cmd.Start(); err != nil {
		return services.Wrap(services.ErrExternalTool, opts.Stage, "start ffmpeg", "Unable to launch ffmpeg", err)
	}

	tail := newLineTail(stderrTailLines)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		e.consumeStderr(stderr, opts, tail)
	}()
	go func() {
		defer wg.Done()
		_, _ = io.Copy(io.Discard, stdout)
	}()
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		detail := tail.String()
		if detail == "" {
			detail = "ffmpeg exited with an error"
		}
		return services.Wrap(services.ErrExternalTool, opts.Stage, "run ffmpeg", detail, err)
	}

	e.logger.Debug("ffmpeg completed", logging.Duration("elapsed", time.Since(started)))
	return nil
}

func (e *Executor) consumeStderr(r io.Reader, opts RunOptions, tail *lineTail) {
	parser := newProgressParser(opts.Duration)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if isProgressLine(line) {
			if block, ok := parser.feed(line); ok && opts.Progress != nil {
				opts.Progress(block)
			}
			continue
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			tail.add(trimmed)
			e.logger.Debug("ffmpeg output", logging.String("line", trimmed))
		}
	}
}

var progressKeys = map[string]struct{}{
	"frame": {}, "fps": {}, "bitrate": {}, "total_size": {}, "out_time_us": {}, "out_time_ms": {},
	"out_time": {}, "dup_frames": {}, "drop_frames": {}, "speed": {}, "progress": {},
}

func isProgressLine(line string) bool {
	key, _, ok := strings.Cut(line, "=")
	if !ok {
		return false
	}
	if _, known := progressKeys[key]; known {
		return true
	}
	return strings.HasPrefix(key, "stream_")
}

// lineTail keeps the last n lines written to it.
type lineTail struct {
	mu    sync.Mutex
	lines []string
	max   int
}

func newLineTail(n int) *lineTail {
	return &lineTail{max: n}
}

func (t *lineTail) add(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if len(t.lines) > t.max {
		t.lines = t.lines[len(t.lines)-t.max:]
	}
}

func (t *lineTail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.lines, "; ")
}
