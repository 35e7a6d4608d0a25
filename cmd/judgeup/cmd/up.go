package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joeblew999/judgeup/internal/announce"
	"github.com/joeblew999/judgeup/internal/config"
	"github.com/joeblew999/judgeup/internal/firewall"
	"github.com/joeblew999/judgeup/internal/launcher"
	"github.com/joeblew999/judgeup/internal/netaddr"
	"github.com/joeblew999/judgeup/internal/startup"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	upAgentPort  int
	upDir        string
	upNoFirewall bool
	upFreePort   bool
	upNoPause    bool
)

// UpCmd runs the full startup: detect address, announce, open port, launch.
var UpCmd = &cobra.Command{
	Use:   "up",
	Short: "Announce the LAN address and run the judge server",
	Long: `Detect this machine's LAN IPv4 address, print the command participants
should run, open the judge port in the firewall (best-effort), then run the
judge server until it exits.

Running judgeup with no command does the same thing.

Steps:
  1. Resolve the first address matching --pattern (default "192.")
  2. Print the server address and the participant agent command
  3. Allow inbound TCP on --port (default 5000); failures only warn
  4. Run the judge server (python main.py) and wait for it to exit

If no address matches, judgeup stops before step 3.

Examples:
  judgeup                           # classic launch
  judgeup up --pattern private      # any private IPv4 address
  judgeup up --interface Wi-Fi      # prefer one adapter
  judgeup up --pattern 10.0.0.0/8 --port 6000
  judgeup up --no-firewall --no-pause`,
	Args: cobra.NoArgs,
	RunE: RunUp,
}

func init() {
	BindUpFlags(UpCmd.Flags())
}

// BindUpFlags registers the up flags on fs. The root command binds them too
// so that a bare `judgeup` accepts the same flags.
func BindUpFlags(fs *pflag.FlagSet) {
	bindConfigFlag(fs)
	bindAddressFlags(fs)
	bindPortFlag(fs)
	fs.IntVar(&upAgentPort, "agent-port", config.DefaultAgentPort, "Local port of the participant agent UI")
	fs.StringVarP(&upDir, "dir", "d", "", "Judge server directory (default: current directory)")
	fs.BoolVar(&upNoFirewall, "no-firewall", false, "Do not touch the OS firewall")
	fs.BoolVar(&upFreePort, "free-port", false, "Kill a stale process listening on the judge port before launch")
	fs.BoolVar(&upNoPause, "no-pause", false, "Exit without waiting for Enter")
}

// RunUp is the up command, also used as the root command's default action.
func RunUp(c *cobra.Command, args []string) error {
	defer pauseIfInteractive(upNoPause)

	out := c.OutOrStdout()
	cfg, path, err := loadConfig(c)
	if err != nil {
		return reportFailure(out, err, "Fix judgeup.yaml or run 'judgeup config init' to start from defaults.")
	}
	applyUpFlags(c, cfg)
	if err := cfg.Validate(); err != nil {
		return reportFailure(out, err, "")
	}
	if path != "" {
		log.Debug().Str("path", path).Msg("config loaded")
	}

	matcher, err := netaddr.ParsePattern(cfg.Address.Pattern)
	if err != nil {
		return reportFailure(out, err, "")
	}
	resolver := netaddr.NewResolver(matcher, cfg.Address.Interface, cfg.Address.IgnoreInterfaces)
	resolver.Log = &log.Logger

	orch := &startup.Orchestrator{
		Resolver: resolver,
		Launcher: launcher.New(log.Logger),
		Ports:    launcher.PortGuard{Log: log.Logger},
		Prepare: func() (launcher.Command, error) {
			return serverCommand(cfg)
		},
		Out:     out,
		Log:     log.Logger,
		Options: startup.OptionsFromConfig(cfg, launcher.Command{}),
	}
	if cfg.Firewall.Enabled {
		orch.Firewall = firewall.New()
	}

	ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := orch.Run(ctx)
	if err != nil && !errors.Is(err, netaddr.ErrAddressNotFound) {
		// The orchestrator already reported a missing address.
		announce.Failure(out, err, failureHint(err))
	}
	if code := exitCode(report.Status, err); code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// exitCode maps the outcome of a run to the process exit code: 1 for any
// startup failure, 130 after an interrupt, otherwise the server's own code
// (1 when it was killed by a signal).
func exitCode(status launcher.ExitStatus, err error) int {
	switch {
	case err != nil:
		return 1
	case status.Interrupted:
		return 130
	case status.Code < 0:
		return 1
	default:
		return status.Code
	}
}

// failureHint suggests a fix for a startup error.
func failureHint(err error) string {
	switch {
	case errors.Is(err, launcher.ErrInterpreterNotFound):
		return "Install Python 3, or set server.program in judgeup.yaml."
	case errors.Is(err, exec.ErrNotFound):
		return "Check server.program in judgeup.yaml; it must be on PATH or a path to an executable."
	case errors.Is(err, os.ErrNotExist):
		return "Run judgeup from the judge server directory, or set --dir / server.script / server.env_file."
	default:
		return ""
	}
}

func applyUpFlags(c *cobra.Command, cfg *config.Config) {
	flags := c.Flags()
	if flags.Changed("agent-port") {
		cfg.Agent.Port = upAgentPort
	}
	if flags.Changed("dir") {
		cfg.Server.Dir = upDir
	}
	if upNoFirewall {
		cfg.Firewall.Enabled = false
	}
	if upFreePort {
		cfg.Server.FreePort = true
	}
}

// serverCommand builds the judge server command line from the config.
func serverCommand(cfg *config.Config) (launcher.Command, error) {
	program, err := launcher.ResolveProgram(cfg.Server.Program)
	if err != nil {
		return launcher.Command{}, err
	}

	var args []string
	if cfg.Server.Script != "" {
		script := filepath.Join(cfg.Server.Dir, cfg.Server.Script)
		if _, err := os.Stat(script); err != nil {
			return launcher.Command{}, fmt.Errorf("judge server script: %w", err)
		}
		args = append(args, cfg.Server.Script)
	}
	args = append(args, cfg.Server.Args...)

	var env []string
	if cfg.Server.EnvFile != "" {
		env, err = config.LoadEnvFile(cfg.Server.EnvFile)
		if err != nil {
			return launcher.Command{}, err
		}
	}

	return launcher.Command{
		Path: program,
		Args: args,
		Dir:  cfg.Server.Dir,
		Env:  env,
	}, nil
}

// reportFailure prints err with a hint and returns an already-reported exit error.
func reportFailure(w io.Writer, err error, hint string) error {
	announce.Failure(w, err, hint)
	return &ExitError{Code: 1}
}
