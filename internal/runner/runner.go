// Package runner spawns the external build, test and publish tools.
// Commands run synchronously: Run blocks until the process exits, the
// per-command timeout fires, or the context is cancelled.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Command is a fully expanded process invocation.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory (empty = current directory).
	Dir string
	// Env holds extra KEY=VALUE pairs appended to the inherited environment.
	Env []string
	// Redact lists values that must never appear in logs (secrets).
	Redact []string
}

// String renders the command line with redacted values masked.
func (c Command) String() string {
	parts := append([]string{c.Name}, c.Args...)
	line := strings.Join(parts, " ")
	for _, secret := range c.Redact {
		if secret != "" {
			line = strings.ReplaceAll(line, secret, "***")
		}
	}
	return line
}

// Result is the bounded outcome of a finished process.
type Result struct {
	ExitCode int
	Duration time.Duration
	// Output holds combined stdout/stderr when the runner captures output.
	Output string
}

// Success reports whether the process exited with status 0.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// ExitError is returned when a process exits with a non-zero status.
type ExitError struct {
	Command  string
	ExitCode int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Command, e.ExitCode)
}

// ErrTimeout is wrapped by errors from commands that exceeded the timeout.
var ErrTimeout = errors.New("command timed out")

// Runner executes external commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Stdout and Stderr receive the process output. When both are nil the
	// output is captured into Result.Output instead.
	Stdout io.Writer
	Stderr io.Writer
	// Timeout bounds every command (0 = no timeout).
	Timeout time.Duration
	Logger  *zap.Logger
}

// Run starts the command and waits for it to exit.
// A non-zero exit status is reported as *ExitError alongside the Result.
func (r *ExecRunner) Run(ctx context.Context, c Command) (Result, error) {
	logger := r.logger()

	ctx, cancel := r.applyTimeout(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = append(os.Environ(), c.Env...)

	var captured bytes.Buffer
	if r.Stdout == nil && r.Stderr == nil {
		cmd.Stdout = &captured
		cmd.Stderr = &captured
	} else {
		cmd.Stdout = writerOr(r.Stdout, io.Discard)
		cmd.Stderr = writerOr(r.Stderr, io.Discard)
	}

	logger.Debug("spawning command", zap.String("command", c.String()), zap.String("dir", c.Dir))

	start := time.Now()
	err := cmd.Run()
	result := Result{Duration: time.Since(start), Output: captured.String()}

	if err == nil {
		logger.Debug("command finished", zap.String("command", c.Name), zap.Duration("duration", result.Duration))
		return result, nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		result.ExitCode = -1
		return result, fmt.Errorf("%s: %w after %v", c.Name, ErrTimeout, r.Timeout)
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		result.ExitCode = -1
		return result, fmt.Errorf("%s: %w", c.Name, ctx.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		logger.Debug("command failed", zap.String("command", c.Name), zap.Int("exit_code", result.ExitCode))
		return result, &ExitError{Command: c.Name, ExitCode: result.ExitCode}
	}

	result.ExitCode = -1
	return result, fmt.Errorf("running %s: %w", c.Name, err)
}

// applyTimeout returns a context with timeout if r.Timeout is set.
func (r *ExecRunner) applyTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.Timeout > 0 {
		return context.WithTimeout(ctx, r.Timeout)
	}
	return ctx, func() {}
}

func (r *ExecRunner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

func writerOr(w, fallback io.Writer) io.Writer {
	if w == nil {
		return fallback
	}
	return w
}
