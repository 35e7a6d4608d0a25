package launcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const helperEnv = "JUDGEUP_HELPER_PROCESS"

// helperCommand re-executes the test binary as a stand-in judge server.
func helperCommand(mode string, args ...string) Command {
	return Command{
		Path: os.Args[0],
		Args: append([]string{"-test.run=TestHelperProcess", "--", mode}, args...),
		Env:  []string{helperEnv + "=1"},
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv(helperEnv) != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) < 2 {
		os.Exit(2)
	}

	switch args[1] {
	case "exit":
		code, _ := strconv.Atoi(args[2])
		os.Exit(code)
	case "getenv":
		fmt.Print(os.Getenv(args[2]))
		os.Exit(0)
	case "pwd":
		wd, _ := os.Getwd()
		fmt.Print(wd)
		os.Exit(0)
	case "sleep":
		time.Sleep(time.Minute)
		os.Exit(0)
	}
	os.Exit(2)
}

func newTestLauncher(stdout *bytes.Buffer) *Launcher {
	return &Launcher{
		Stdout:      stdout,
		Stderr:      &bytes.Buffer{},
		GracePeriod: 2 * time.Second,
		Log:         zerolog.Nop(),
	}
}

func TestLaunchAndWaitSuccess(t *testing.T) {
	l := newTestLauncher(&bytes.Buffer{})

	status, err := l.LaunchAndWait(context.Background(), helperCommand("exit", "0"))
	if err != nil {
		t.Fatalf("LaunchAndWait failed: %v", err)
	}
	if !status.Success() {
		t.Errorf("status = %+v, want success", status)
	}
}

func TestLaunchAndWaitExitCode(t *testing.T) {
	l := newTestLauncher(&bytes.Buffer{})

	status, err := l.LaunchAndWait(context.Background(), helperCommand("exit", "3"))
	if err != nil {
		t.Fatalf("non-zero exit should not be an error: %v", err)
	}
	if status.Code != 3 || status.Interrupted {
		t.Errorf("status = %+v, want code 3", status)
	}
	if status.Success() {
		t.Error("Success() = true for exit code 3")
	}
}

func TestLaunchAndWaitEnv(t *testing.T) {
	var out bytes.Buffer
	l := newTestLauncher(&out)

	c := helperCommand("getenv", "JUDGE_IP")
	c.Env = append(c.Env, "JUDGE_IP=192.168.1.42")

	if _, err := l.LaunchAndWait(context.Background(), c); err != nil {
		t.Fatal(err)
	}
	if out.String() != "192.168.1.42" {
		t.Errorf("child saw JUDGE_IP=%q", out.String())
	}
}

func TestLaunchAndWaitDir(t *testing.T) {
	var out bytes.Buffer
	l := newTestLauncher(&out)
	dir := t.TempDir()

	c := helperCommand("pwd")
	c.Dir = dir
	if _, err := l.LaunchAndWait(context.Background(), c); err != nil {
		t.Fatal(err)
	}

	want, _ := filepath.EvalSymlinks(dir)
	got, _ := filepath.EvalSymlinks(out.String())
	if got != want {
		t.Errorf("child cwd = %q, want %q", got, want)
	}
}

func TestLaunchAndWaitInterrupt(t *testing.T) {
	l := newTestLauncher(&bytes.Buffer{})

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	status, err := l.LaunchAndWait(ctx, helperCommand("sleep"))
	if err != nil {
		t.Fatalf("interrupted wait should not be an error: %v", err)
	}
	if !status.Interrupted {
		t.Errorf("status = %+v, want interrupted", status)
	}
	if elapsed := time.Since(start); elapsed > 20*time.Second {
		t.Errorf("child not reaped promptly: %v", elapsed)
	}
}

func TestLaunchAndWaitStartFailure(t *testing.T) {
	l := newTestLauncher(&bytes.Buffer{})

	_, err := l.LaunchAndWait(context.Background(), Command{Path: filepath.Join(t.TempDir(), "no-such-server")})
	if err == nil {
		t.Fatal("expected start error")
	}
	if !strings.Contains(err.Error(), "start") {
		t.Errorf("error = %v, want start failure", err)
	}

	if _, err := l.LaunchAndWait(context.Background(), Command{}); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestCommandString(t *testing.T) {
	c := Command{Path: "python", Args: []string{"main.py", "--port", "5000"}}
	if got := c.String(); got != "python main.py --port 5000" {
		t.Errorf("String() = %q", got)
	}
}

func TestFindInterpreter(t *testing.T) {
	_, err := FindInterpreter("judgeup-no-such-python-1", "judgeup-no-such-python-2")
	if !errors.Is(err, ErrInterpreterNotFound) {
		t.Fatalf("error = %v, want ErrInterpreterNotFound", err)
	}
	if !strings.Contains(err.Error(), "judgeup-no-such-python-2") {
		t.Errorf("error should list candidates: %v", err)
	}

	path, err := FindInterpreter("judgeup-no-such-python", os.Args[0])
	if err != nil {
		t.Fatalf("FindInterpreter with existing candidate failed: %v", err)
	}
	if path == "" {
		t.Error("empty path for existing candidate")
	}
}

func TestInterpreterCandidates(t *testing.T) {
	if got := InterpreterCandidates("windows"); got[0] != "python" {
		t.Errorf("windows candidates = %v, want python first", got)
	}
	if got := InterpreterCandidates("linux"); got[0] != "python3" {
		t.Errorf("linux candidates = %v, want python3 first", got)
	}
}

func TestResolveProgramPath(t *testing.T) {
	p := filepath.Join("venv", "bin", "python")
	got, err := ResolveProgram(p)
	if err != nil {
		t.Fatal(err)
	}
	if got != p {
		t.Errorf("ResolveProgram(%q) = %q, want unchanged", p, got)
	}

	if _, err := ResolveProgram("judgeup-no-such-program"); err == nil {
		t.Error("expected error for missing program")
	}
}
