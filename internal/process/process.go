// Package process runs the external tools the sweep depends on (docker compose,
// k6) and turns their failures into ExternalProcessError values.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// maxDiagnosticBytes bounds the captured output kept on an error.
const maxDiagnosticBytes = 8 * 1024

// Command describes one external invocation.
type Command struct {
	Name string
	Args []string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Env holds extra KEY=VALUE pairs appended to the inherited environment.
	Env []string

	// Timeout kills the process once exceeded. Zero disables it.
	Timeout time.Duration
}

// String renders the command line for logs and errors.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Runner executes commands to completion.
type Runner interface {
	Run(ctx context.Context, cmd Command) ([]byte, error)
}

// ExternalProcessError reports a command that exited non-zero, timed out or
// could not be started.
type ExternalProcessError struct {
	Command  string
	ExitCode int
	TimedOut bool
	Output   string
	Err      error
}

func (e *ExternalProcessError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Command)
	switch {
	case e.TimedOut:
		sb.WriteString(": timed out")
	case e.ExitCode > 0:
		sb.WriteString(fmt.Sprintf(": exit code %d", e.ExitCode))
	case e.Err != nil:
		sb.WriteString(": " + e.Err.Error())
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		sb.WriteString(": " + out)
	}
	return sb.String()
}

func (e *ExternalProcessError) Unwrap() error {
	return e.Err
}

// IsExternal reports whether err is, or wraps, an ExternalProcessError.
func IsExternal(err error) bool {
	var target *ExternalProcessError
	return errors.As(err, &target)
}

// ExecRunner runs commands with os/exec, capturing combined output.
type ExecRunner struct{}

// NewExecRunner creates a runner backed by the local OS.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run blocks until the command exits. Cancellation of ctx is deliberately not
// forwarded to the child: an operator interrupt stops the sweep between steps,
// never in the middle of one. Only cmd.Timeout can kill the process.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) ([]byte, error) {
	runCtx := context.WithoutCancel(ctx)
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, cmd.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(runCtx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	var out bytes.Buffer
	c.Stdout = &out
	c.Stderr = &out

	log.WithField("command", cmd.String()).Debug("running external command")
	start := time.Now()
	err := c.Run()
	log.WithFields(log.Fields{
		"command":  cmd.String(),
		"duration": time.Since(start).Round(time.Millisecond),
	}).Debug("external command finished")

	if err == nil {
		return out.Bytes(), nil
	}

	procErr := &ExternalProcessError{
		Command:  cmd.String(),
		ExitCode: -1,
		Output:   tail(out.String(), maxDiagnosticBytes),
		Err:      err,
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		procErr.TimedOut = true
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		procErr.ExitCode = exitErr.ExitCode()
	}
	return out.Bytes(), procErr
}

// tail keeps the last n bytes of s, where tools print their actual error.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
