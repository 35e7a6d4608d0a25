// Package cmd provides CLI commands for judgeup.
package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/kardianos/service"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// NoPauseEnv disables the "Press Enter to exit" prompt when set.
const NoPauseEnv = "JUDGEUP_NO_PAUSE"

// ExitError carries a process exit code out of a command.
// A nil Err means the failure was already reported to the user.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Execute runs the root command and returns the process exit code.
func Execute(root *cobra.Command) int {
	err := root.Execute()
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			color.Red("Error: %v", exitErr.Err)
		}
		return exitErr.Code
	}

	color.Red("Error: %v", err)
	return 1
}

// pauseIfInteractive keeps a double-clicked console window open until the
// user has read the output. It never blocks under a service manager, with a
// redirected stdin, or when disabled.
func pauseIfInteractive(disabled bool) {
	if disabled || os.Getenv(NoPauseEnv) != "" {
		return
	}
	if !service.Interactive() {
		return
	}
	fd := os.Stdin.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return
	}
	pause(os.Stdin, os.Stdout)
}

func pause(in io.Reader, out io.Writer) {
	fmt.Fprintln(out)
	fmt.Fprint(out, "Press Enter to exit...")
	bufio.NewReader(in).ReadString('\n')
}
