// Package dbt invokes the external dbt CLI as a subprocess. The pipeline
// driver sees only the Runner interface, so tests never spawn a real tool.
package dbt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"
)

// Subcommands passed to the tool.
const (
	CommandBuild = "build"
	CommandTest  = "test"
)

// DefaultTimeout bounds one tool invocation's wall-clock time.
const DefaultTimeout = 5 * time.Minute

// Result is the outcome of one tool invocation. A non-zero ExitCode is a
// result, not an error: the tool ran to completion and reported failure.
type Result struct {
	ExitCode int
	Output   string
	Duration time.Duration
}

// Runner invokes the external transform tool.
type Runner interface {
	// Run executes one subcommand and returns its result. The error is
	// non-nil only when the tool could not run to completion: spawn
	// failures, or context.DeadlineExceeded when the timeout fired. Partial
	// output is preserved in the Result either way.
	Run(ctx context.Context, command string) (Result, error)
}

// ExecRunner runs the real dbt binary.
type ExecRunner struct {
	// Bin is the tool binary. Defaults to "dbt".
	Bin string

	// ProfilesDir and ProjectDir are passed on every invocation.
	ProfilesDir string
	ProjectDir  string

	// Timeout bounds each invocation. Defaults to DefaultTimeout.
	Timeout time.Duration

	Log *slog.Logger
}

// Run executes `dbt <command> --profiles-dir <P> --project-dir <Q>` with
// combined stdout and stderr captured.
func (r *ExecRunner) Run(ctx context.Context, command string) (Result, error) {
	bin := r.Bin
	if bin == "" {
		bin = "dbt"
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	log := r.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{command, "--profiles-dir", r.ProfilesDir, "--project-dir", r.ProjectDir}
	log.Info("running transform tool", slog.String("bin", bin), slog.Any("args", args))

	cmd := exec.CommandContext(ctx, bin, args...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	start := time.Now()
	err := cmd.Run()
	res := Result{Output: buf.String(), Duration: time.Since(start)}

	if ctx.Err() != nil {
		log.Warn("transform tool timed out", slog.Duration("after", res.Duration))
		return res, ctx.Err()
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			log.Warn("transform tool exited non-zero", slog.Int("exit_code", res.ExitCode))
			return res, nil
		}
		return res, fmt.Errorf("failed to run %s %s: %w", bin, command, err)
	}

	log.Info("transform tool finished",
		slog.String("command", command),
		slog.Duration("duration", res.Duration),
	)
	return res, nil
}

var _ Runner = (*ExecRunner)(nil)
