// Package launcher starts the judge server as a child process and waits
// for it to exit.
//
// The child inherits the terminal. The wait has no timeout: it ends when the
// child exits or when the context is cancelled (Ctrl+C). On cancellation the
// child is asked to stop, killed after GracePeriod, and always reaped.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultGracePeriod is how long an interrupted child may take to exit.
const DefaultGracePeriod = 5 * time.Second

// Command describes the process to launch.
type Command struct {
	Path string
	Args []string
	Dir  string
	// Env is appended to the inherited environment.
	Env []string
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// ExitStatus is how the child ended.
type ExitStatus struct {
	// Code is the child's exit code, or -1 when it was killed by a signal.
	Code int
	// Interrupted is set when the wait ended because the context was cancelled.
	Interrupted bool
}

// Success reports a clean, uninterrupted exit.
func (s ExitStatus) Success() bool {
	return s.Code == 0 && !s.Interrupted
}

// Launcher runs child processes.
type Launcher struct {
	Stdin       io.Reader
	Stdout      io.Writer
	Stderr      io.Writer
	GracePeriod time.Duration
	Log         zerolog.Logger
}

// New returns a Launcher wired to the current terminal.
func New(log zerolog.Logger) *Launcher {
	return &Launcher{
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		GracePeriod: DefaultGracePeriod,
		Log:         log,
	}
}

// LaunchAndWait starts c and blocks until it exits.
//
// A non-zero exit is reported through ExitStatus, not as an error. The error
// is reserved for failures to start or wait on the process.
func (l *Launcher) LaunchAndWait(ctx context.Context, c Command) (ExitStatus, error) {
	if c.Path == "" {
		return ExitStatus{Code: -1}, errors.New("launch: empty command path")
	}

	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdin = l.Stdin
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	cmd.Cancel = func() error {
		return interrupt(cmd.Process)
	}
	cmd.WaitDelay = l.GracePeriod
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = DefaultGracePeriod
	}

	if err := cmd.Start(); err != nil {
		return ExitStatus{Code: -1}, fmt.Errorf("start %s: %w", c, err)
	}
	l.Log.Info().Int("pid", cmd.Process.Pid).Str("command", c.String()).Msg("judge server started")

	err := cmd.Wait()

	status := ExitStatus{Code: -1, Interrupted: ctx.Err() != nil}
	if cmd.ProcessState != nil {
		status.Code = cmd.ProcessState.ExitCode()
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) && !status.Interrupted {
			return status, fmt.Errorf("wait %s: %w", c, err)
		}
	}

	l.Log.Info().Int("code", status.Code).Bool("interrupted", status.Interrupted).Msg("judge server exited")
	return status, nil
}

// interrupt asks the child to stop. Windows has no SIGINT delivery to
// another process, so the child is killed there.
func interrupt(p *os.Process) error {
	if p == nil {
		return nil
	}
	if runtime.GOOS == "windows" {
		return p.Kill()
	}
	return p.Signal(os.Interrupt)
}
