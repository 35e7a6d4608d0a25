package launcher

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrInterpreterNotFound is returned when no Python interpreter is on PATH.
var ErrInterpreterNotFound = errors.New("python interpreter not found")

// InterpreterCandidates returns the Python executables to try, in order.
// Windows installs usually provide "python" and the "py" launcher; Unix
// systems often only have "python3".
func InterpreterCandidates(goos string) []string {
	if goos == "windows" {
		return []string{"python", "py", "python3"}
	}
	return []string{"python3", "python"}
}

// FindInterpreter returns the first candidate found on PATH.
func FindInterpreter(candidates ...string) (string, error) {
	if len(candidates) == 0 {
		candidates = InterpreterCandidates(runtime.GOOS)
	}
	for _, name := range candidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w (tried %s)", ErrInterpreterNotFound, strings.Join(candidates, ", "))
}

// ResolveProgram turns a configured program into an executable path.
// An empty program means the Python interpreter. Paths containing a
// separator are used as given; bare names are looked up on PATH.
func ResolveProgram(program string) (string, error) {
	if program == "" {
		return FindInterpreter()
	}
	if strings.ContainsRune(program, filepath.Separator) || strings.Contains(program, "/") {
		return program, nil
	}
	path, err := exec.LookPath(program)
	if err != nil {
		return "", fmt.Errorf("program %q: %w", program, err)
	}
	return path, nil
}
