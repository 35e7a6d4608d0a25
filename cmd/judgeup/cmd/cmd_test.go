package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/joeblew999/judgeup/internal/config"
	"github.com/joeblew999/judgeup/internal/firewall"
	"github.com/joeblew999/judgeup/internal/launcher"
	"github.com/joeblew999/judgeup/internal/netaddr"
	"github.com/spf13/cobra"
)

func init() {
	color.NoColor = true
}

func newFlagCmd(t *testing.T) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "test"}
	bindConfigFlag(c.Flags())
	bindAddressFlags(c.Flags())
	bindPortFlag(c.Flags())
	return c
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "judgeup.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigFileWinsOverFlagDefaults(t *testing.T) {
	c := newFlagCmd(t)
	if err := c.Flags().Set("config", writeConfig(t, "address:\n  pattern: \"10.\"\nserver:\n  port: 6000\n")); err != nil {
		t.Fatal(err)
	}

	cfg, _, err := loadConfig(c)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Address.Pattern != "10." {
		t.Errorf("Address.Pattern = %q, want value from file", cfg.Address.Pattern)
	}
	if cfg.Server.Port != 6000 {
		t.Errorf("Server.Port = %d, want 6000 from file", cfg.Server.Port)
	}
}

func TestLoadConfigChangedFlagsOverrideFile(t *testing.T) {
	c := newFlagCmd(t)
	flags := c.Flags()
	for name, value := range map[string]string{
		"config":    writeConfig(t, "address:\n  pattern: \"10.\"\nserver:\n  port: 6000\n"),
		"pattern":   "private",
		"interface": "eth1",
		"port":      "7000",
	} {
		if err := flags.Set(name, value); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
	}

	cfg, _, err := loadConfig(c)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Address.Pattern != "private" {
		t.Errorf("Address.Pattern = %q, want private", cfg.Address.Pattern)
	}
	if cfg.Address.Interface != "eth1" {
		t.Errorf("Address.Interface = %q, want eth1", cfg.Address.Interface)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("Server.Port = %d, want 7000", cfg.Server.Port)
	}
}

func TestLoadConfigRejectsBadPortFlag(t *testing.T) {
	c := newFlagCmd(t)
	flags := c.Flags()
	if err := flags.Set("config", writeConfig(t, "{}\n")); err != nil {
		t.Fatal(err)
	}
	if err := flags.Set("port", "0"); err != nil {
		t.Fatal(err)
	}

	if _, _, err := loadConfig(c); err == nil {
		t.Fatal("expected error for port 0")
	}
}

func TestExecuteExitCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, 0},
		{"reported failure", &ExitError{Code: 1}, 1},
		{"child exit code", &ExitError{Code: 3}, 3},
		{"interrupted", &ExitError{Code: 130}, 130},
		{"plain error", errors.New("boom"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := &cobra.Command{
				Use:           "judgeup",
				SilenceUsage:  true,
				SilenceErrors: true,
				RunE: func(*cobra.Command, []string) error {
					return tt.err
				},
			}
			root.SetArgs([]string{})
			if got := Execute(root); got != tt.want {
				t.Errorf("Execute() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestExitErrorUnwrap(t *testing.T) {
	err := &ExitError{Code: 1, Err: netaddr.ErrAddressNotFound}
	if !errors.Is(err, netaddr.ErrAddressNotFound) {
		t.Error("ExitError should unwrap to its cause")
	}
	if (&ExitError{Code: 4}).Error() != "exit status 4" {
		t.Errorf("Error() = %q", (&ExitError{Code: 4}).Error())
	}
}

func TestPauseWaitsForEnter(t *testing.T) {
	var out bytes.Buffer
	pause(strings.NewReader("\n"), &out)
	if !strings.Contains(out.String(), "Press Enter to exit") {
		t.Errorf("prompt missing: %q", out.String())
	}
}

func TestPauseReturnsOnEOF(t *testing.T) {
	var out bytes.Buffer
	pause(strings.NewReader(""), &out)
}

func TestServerCommandDefaultsToScript(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "main.py"), []byte("print('judge')\n"), 0644); err != nil {
		t.Fatal(err)
	}
	exe, err := os.Executable()
	if err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Server.Program = exe
	cfg.Server.Script = config.DefaultServerScript
	cfg.Server.Dir = dir
	cfg.Server.Args = []string{"--port", "${JUDGE_PORT}"}

	got, err := serverCommand(cfg)
	if err != nil {
		t.Fatalf("serverCommand failed: %v", err)
	}
	if got.Path != exe {
		t.Errorf("Path = %q, want %q", got.Path, exe)
	}
	want := []string{"main.py", "--port", "${JUDGE_PORT}"}
	if strings.Join(got.Args, " ") != strings.Join(want, " ") {
		t.Errorf("Args = %v, want %v", got.Args, want)
	}
	if got.Dir != dir {
		t.Errorf("Dir = %q, want %q", got.Dir, dir)
	}
}

func TestServerCommandMissingScript(t *testing.T) {
	exe, err := os.Executable()
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig()
	cfg.Server.Program = exe
	cfg.Server.Script = "main.py"
	cfg.Server.Dir = t.TempDir()

	if _, err := serverCommand(cfg); err == nil {
		t.Fatal("expected error when the server script does not exist")
	}
}

func TestServerCommandEnvFile(t *testing.T) {
	exe, err := os.Executable()
	if err != nil {
		t.Fatal(err)
	}
	envFile := filepath.Join(t.TempDir(), "judge.env")
	if err := os.WriteFile(envFile, []byte("JUDGE_TIMEOUT=10\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Server.Program = exe
	cfg.Server.Script = ""
	cfg.Server.EnvFile = envFile

	got, err := serverCommand(cfg)
	if err != nil {
		t.Fatalf("serverCommand failed: %v", err)
	}
	if len(got.Args) != 0 {
		t.Errorf("Args = %v, want none without a script", got.Args)
	}
	if len(got.Env) != 1 || got.Env[0] != "JUDGE_TIMEOUT=10" {
		t.Errorf("Env = %v", got.Env)
	}
}

func TestPrintFirewallResult(t *testing.T) {
	rule := firewall.Rule{Name: "Central Judge Server", Port: 5000}
	tests := []struct {
		name string
		res  firewall.Result
		want string
	}{
		{"applied", firewall.Result{Rule: rule, Tool: "netsh", Status: firewall.Applied}, "Opened Central Judge Server 5000/TCP with netsh"},
		{"exists", firewall.Result{Rule: rule, Tool: "ufw", Status: firewall.Exists}, "already allowed by ufw"},
		{"skipped", firewall.Result{Rule: rule, Status: firewall.Skipped}, "No supported firewall tool"},
		{"failed", firewall.Result{Rule: rule, Tool: "netsh", Status: firewall.Failed, Err: errors.New("access denied")}, "access denied"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printFirewallResult(&buf, tt.res)
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output %q does not contain %q", buf.String(), tt.want)
			}
		})
	}
}

func TestWriteCandidates(t *testing.T) {
	candidates := []netaddr.Candidate{
		{InterfaceAddress: netaddr.InterfaceAddress{Interface: "eth0", Family: netaddr.IPv4, Address: "10.0.0.5"}},
		{InterfaceAddress: netaddr.InterfaceAddress{Interface: "wlan0", Family: netaddr.IPv4, Address: "192.168.1.10"}, Matched: true},
	}

	var buf bytes.Buffer
	if err := writeCandidates(&buf, candidates); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2:\n%s", len(lines), buf.String())
	}
	if strings.HasPrefix(strings.TrimSpace(lines[1]), "*") {
		t.Errorf("eth0 should not be marked: %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "*") || !strings.Contains(lines[2], "192.168.1.10") {
		t.Errorf("wlan0 should be marked: %q", lines[2])
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name   string
		status launcher.ExitStatus
		err    error
		want   int
	}{
		{"clean exit", launcher.ExitStatus{Code: 0}, nil, 0},
		{"server failed", launcher.ExitStatus{Code: 3}, nil, 3},
		{"killed by signal", launcher.ExitStatus{Code: -1}, nil, 1},
		{"interrupted", launcher.ExitStatus{Code: -1, Interrupted: true}, nil, 130},
		{"interrupted after clean exit", launcher.ExitStatus{Code: 0, Interrupted: true}, nil, 130},
		{"address not found", launcher.ExitStatus{}, fmt.Errorf("%w: pattern %q", netaddr.ErrAddressNotFound, "192."), 1},
		{"launch failed", launcher.ExitStatus{Code: -1}, errors.New("launch judge server: start: permission denied"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.status, tt.err); got != tt.want {
				t.Errorf("exitCode(%+v, %v) = %d, want %d", tt.status, tt.err, got, tt.want)
			}
		})
	}
}

func TestFailureHint(t *testing.T) {
	_, statErr := os.Stat(filepath.Join(t.TempDir(), "main.py"))

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"no python", fmt.Errorf("prepare judge server: %w", launcher.ErrInterpreterNotFound), "Install Python 3"},
		{"missing script", fmt.Errorf("prepare judge server: judge server script: %w", statErr), "--dir"},
		{"program not on PATH", fmt.Errorf("program %q: %w", "judge-server", exec.ErrNotFound), "server.program"},
		{"other", errors.New("launch judge server: boom"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := failureHint(tt.err)
			if tt.want == "" {
				if got != "" {
					t.Errorf("failureHint() = %q, want none", got)
				}
				return
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("failureHint() = %q, want it to mention %q", got, tt.want)
			}
			if tt.name == "missing script" && strings.Contains(got, "Python") {
				t.Errorf("missing script should not suggest installing Python: %q", got)
			}
		})
	}
}

func TestRunUpResolvesAddressBeforeServerChecks(t *testing.T) {
	dir := t.TempDir() // no main.py here
	chdir(t, dir)
	t.Setenv(config.EnvHome, filepath.Join(dir, "home"))
	t.Setenv(config.EnvConfigPath, "")
	t.Setenv(NoPauseEnv, "1")

	up := &cobra.Command{
		Use:           "up",
		Args:          cobra.NoArgs,
		RunE:          RunUp,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	BindUpFlags(up.Flags())
	var out bytes.Buffer
	up.SetOut(&out)
	// 203.0.113.0/24 is reserved for documentation and never assigned.
	up.SetArgs([]string{"--pattern", "203.0.113.", "--dir", dir, "--no-firewall", "--no-pause"})

	if code := Execute(up); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	got := out.String()
	if !strings.Contains(got, "no matching local address") {
		t.Errorf("missing address not reported:\n%s", got)
	}
	if strings.Contains(got, "main.py") || strings.Contains(got, "Python") {
		t.Errorf("server checks ran before address resolution:\n%s", got)
	}
}
