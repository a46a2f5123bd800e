// Package toolexec runs external command line tools (ffmpeg, ffprobe,
// ImageMagick, yt-dlp) under a shared concurrency limit and per-invocation
// timeout.
package toolexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/heenao9k/betmc-ui-generator/internal/infra/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// stderrLimit bounds the stderr tail kept on a ToolError.
const stderrLimit = 4 << 10

type Config struct {
	// Concurrency caps simultaneous tool processes. Zero means NumCPU.
	Concurrency int
	// Timeout bounds a single invocation. Zero disables it.
	Timeout time.Duration
}

type Runner struct {
	sem     *semaphore.Weighted
	timeout time.Duration
	logger  *zap.Logger
}

func NewRunner(logger *zap.Logger, cfg Config) *Runner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = runtime.NumCPU()
	}
	return &Runner{
		sem:     semaphore.NewWeighted(int64(cfg.Concurrency)),
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// ToolError is returned when a tool exits non-zero, times out or cannot be
// started.
type ToolError struct {
	Tool     string
	Args     []string
	ExitCode int
	Stderr   string
	TimedOut bool
	Err      error
}

func (e *ToolError) Error() string {
	switch {
	case e.TimedOut:
		return fmt.Sprintf("%s timed out", e.Tool)
	case e.ExitCode != 0:
		msg := fmt.Sprintf("%s exited with code %d", e.Tool, e.ExitCode)
		if tail := lastLine(e.Stderr); tail != "" {
			msg += ": " + tail
		}
		return msg
	default:
		return fmt.Sprintf("%s: %v", e.Tool, e.Err)
	}
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// Run executes name with args and returns its stdout. It blocks until a
// concurrency slot is free or ctx ends.
func (r *Runner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	tool := filepath.Base(name)
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, &ToolError{Tool: tool, Args: args, Err: fmt.Errorf("wait for tool slot: %w", err)}
	}
	defer r.sem.Release(1)

	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	setProcessGroup(cmd)
	cmd.WaitDelay = 5 * time.Second

	r.logger.Debug("running tool", zap.String("tool", tool), zap.Strings("args", args))

	start := time.Now()
	err := cmd.Run()
	metrics.ToolDuration.WithLabelValues(tool).Observe(time.Since(start).Seconds())

	if err == nil {
		metrics.ToolInvocationsTotal.WithLabelValues(tool, "ok").Inc()
		return stdout.Bytes(), nil
	}

	te := &ToolError{Tool: tool, Args: args, Stderr: tail(stderr.String()), Err: err}
	if r.timeout > 0 && errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		te.TimedOut = true
		metrics.ToolInvocationsTotal.WithLabelValues(tool, "timeout").Inc()
		return nil, te
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		te.ExitCode = exitErr.ExitCode()
	}
	metrics.ToolInvocationsTotal.WithLabelValues(tool, "error").Inc()
	return nil, te
}

func tail(s string) string {
	if len(s) <= stderrLimit {
		return s
	}
	return s[len(s)-stderrLimit:]
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
