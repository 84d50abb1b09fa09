package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout is applied when a Command does not set one.
const DefaultTimeout = 60 * time.Second

// Command describes one external process invocation. Exactly one of Argv
// or Shell must be set: Argv runs the program directly with a literal
// argument vector, Shell hands the string to /bin/sh -c.
type Command struct {
	Argv    []string
	Shell   string
	Dir     string
	Timeout time.Duration
}

// ExecResult is the normalized outcome of one spawned process. It is
// produced for every invocation, including timeouts and spawn failures;
// callers must inspect Success rather than rely on an error return.
type ExecResult struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"returncode"`
	Success  bool   `json:"success"`
}

// Runner executes external commands with a bounded timeout.
type Runner interface {
	Run(ctx context.Context, cmd Command) (ExecResult, error)
}

// ExecRunner is the real Runner on top of os/exec. It is the single point
// through which all side effects of the gateway occur, which is why every
// caller must first pass the package's validators.
type ExecRunner struct {
	logger *zap.Logger
}

// NewExecRunner creates an ExecRunner
func NewExecRunner(logger *zap.Logger) *ExecRunner {
	return &ExecRunner{logger: logger}
}

// Run executes the command and captures both output streams. A non-zero
// exit, a timeout, or a spawn failure all yield a Result with
// Success=false and a nil error; Run returns a non-nil error only for a
// malformed Command.
func (r *ExecRunner) Run(ctx context.Context, c Command) (ExecResult, error) {
	if (len(c.Argv) == 0) == (c.Shell == "") {
		return ExecResult{}, fmt.Errorf("command must set exactly one of Argv or Shell")
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var cmd *exec.Cmd
	if c.Shell != "" {
		cmd = exec.CommandContext(ctx, "/bin/sh", "-c", c.Shell)
	} else {
		cmd = exec.CommandContext(ctx, c.Argv[0], c.Argv[1:]...) //nolint:gosec // Argv is validated by the callers
	}
	cmd.Dir = c.Dir

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	start := time.Now()
	err := cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		r.logger.Warn("command timed out",
			zap.Duration("timeout", timeout),
			zap.Duration("elapsed", time.Since(start)))
		return ExecResult{
			Stdout:   stdoutBuf.String(),
			Stderr:   "command timed out",
			ExitCode: -1,
			Success:  false,
		}, nil
	}

	exitCode := 0
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			exitCode = exitError.ExitCode()
		} else {
			// Spawn failure (missing binary, bad working directory).
			// Reported in the result like every other failure.
			return ExecResult{
				Stderr:   err.Error(),
				ExitCode: -1,
				Success:  false,
			}, nil
		}
	}

	r.logger.Debug("command completed",
		zap.Int("exit_code", exitCode),
		zap.Duration("elapsed", time.Since(start)))

	return ExecResult{
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		ExitCode: exitCode,
		Success:  exitCode == 0,
	}, nil
}
