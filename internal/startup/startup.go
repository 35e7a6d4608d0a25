// Package startup sequences the judge server launch:
//
//	resolve address -> announce -> open firewall port (best-effort) -> launch -> wait
//
// Each step is a collaborator behind an interface. The orchestrator holds no
// state beyond the Report of what it did.
package startup

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/joeblew999/judgeup/internal/announce"
	"github.com/joeblew999/judgeup/internal/config"
	"github.com/joeblew999/judgeup/internal/firewall"
	"github.com/joeblew999/judgeup/internal/launcher"
	"github.com/rs/zerolog"
)

// AddressResolver finds the LAN address to announce.
type AddressResolver interface {
	Resolve() (string, error)
}

// PortOpener applies the best-effort firewall rule.
type PortOpener interface {
	Open(ctx context.Context, rule firewall.Rule) firewall.Result
}

// ProcessLauncher runs the judge server until it exits.
type ProcessLauncher interface {
	LaunchAndWait(ctx context.Context, c launcher.Command) (launcher.ExitStatus, error)
}

// PortGuard checks and clears the judge port before launch.
type PortGuard interface {
	InUse(port int) bool
	Free(ctx context.Context, port int) error
}

// Endpoint is the address participants connect to.
type Endpoint struct {
	IP   string
	Port int
}

func (e Endpoint) String() string {
	return net.JoinHostPort(e.IP, strconv.Itoa(e.Port))
}

// Options are the launch settings, usually built with OptionsFromConfig.
type Options struct {
	Title     string
	Port      int
	AgentPort int
	// AgentCommand and AgentURL may reference ${JUDGE_IP}, ${JUDGE_PORT}
	// and ${AGENT_PORT}.
	AgentCommand string
	AgentURL     string
	RuleName     string
	FreePort     bool
	// Server is the judge server command; its Args are expanded like AgentCommand.
	Server launcher.Command
}

// OptionsFromConfig maps judgeup.yaml onto Options.
func OptionsFromConfig(cfg *config.Config, server launcher.Command) Options {
	return Options{
		Title:        announce.DefaultTitle,
		Port:         cfg.Server.Port,
		AgentPort:    cfg.Agent.Port,
		AgentCommand: cfg.Agent.Command,
		AgentURL:     cfg.Agent.URL,
		RuleName:     cfg.Firewall.RuleName,
		FreePort:     cfg.Server.FreePort,
		Server:       server,
	}
}

// Report records what a Run did.
type Report struct {
	Endpoint Endpoint
	// Firewall is nil when no firewall step was attempted.
	Firewall *firewall.Result
	Launched bool
	Status   launcher.ExitStatus
}

// Orchestrator runs the startup sequence.
type Orchestrator struct {
	Resolver AddressResolver
	// Firewall is optional; nil skips the step.
	Firewall PortOpener
	Launcher ProcessLauncher
	// Ports is optional; nil skips the pre-launch port check.
	Ports PortGuard
	// Prepare, when set, builds the judge server command right before launch
	// and replaces Options.Server. Interpreter and script problems then
	// surface after the address has been announced.
	Prepare func() (launcher.Command, error)
	Out     io.Writer
	Log     zerolog.Logger
	Options Options
}

// Run executes the sequence and blocks until the judge server exits.
//
// If no address is found, Run reports it and returns before touching the
// firewall or launching anything. Firewall failures are logged and never
// returned.
func (o *Orchestrator) Run(ctx context.Context) (Report, error) {
	var report Report

	ip, err := o.Resolver.Resolve()
	if err != nil {
		announce.Failure(o.Out, err, "Connect this machine to the contest network, or set address.pattern / address.interface in judgeup.yaml.")
		o.Log.Error().Err(err).Msg("address resolution failed")
		return report, err
	}
	report.Endpoint = Endpoint{IP: ip, Port: o.Options.Port}
	o.Log.Debug().Str("ip", ip).Int("port", o.Options.Port).Msg("address resolved")

	vars := config.Vars{IP: ip, Port: o.Options.Port, AgentPort: o.Options.AgentPort}
	a, err := o.announcement(vars)
	if err != nil {
		o.Log.Error().Err(err).Msg("invalid launch template")
		return report, err
	}

	if err := announce.Write(o.Out, a); err != nil {
		return report, fmt.Errorf("write announcement: %w", err)
	}

	if o.Firewall != nil {
		res := o.Firewall.Open(ctx, firewall.Rule{Name: o.Options.RuleName, Port: o.Options.Port, Protocol: "TCP"})
		report.Firewall = &res
		o.logFirewall(res)
	}

	o.checkPort(ctx)

	server, err := o.serverCommand(vars)
	if err != nil {
		return report, err
	}

	status, err := o.Launcher.LaunchAndWait(ctx, server)
	report.Launched = true
	report.Status = status
	if err != nil {
		return report, fmt.Errorf("launch judge server: %w", err)
	}
	return report, nil
}

func (o *Orchestrator) announcement(vars config.Vars) (announce.Announcement, error) {
	agentCmd, err := config.Expand(o.Options.AgentCommand, vars)
	if err != nil {
		return announce.Announcement{}, fmt.Errorf("agent command: %w", err)
	}
	agentURL, err := config.Expand(o.Options.AgentURL, vars)
	if err != nil {
		return announce.Announcement{}, fmt.Errorf("agent url: %w", err)
	}

	return announce.Announcement{
		Title:        o.Options.Title,
		IP:           vars.IP,
		Port:         vars.Port,
		AgentCommand: agentCmd,
		AgentURL:     agentURL,
	}, nil
}

// serverCommand builds the launch command and expands its arguments.
func (o *Orchestrator) serverCommand(vars config.Vars) (launcher.Command, error) {
	server := o.Options.Server
	if o.Prepare != nil {
		var err error
		if server, err = o.Prepare(); err != nil {
			o.Log.Error().Err(err).Msg("judge server not ready")
			return launcher.Command{}, fmt.Errorf("prepare judge server: %w", err)
		}
	}

	args, err := config.ExpandAll(server.Args, vars)
	if err != nil {
		return launcher.Command{}, fmt.Errorf("server args: %w", err)
	}
	server.Args = args
	server.Env = append(append([]string(nil), server.Env...), vars.Environ()...)
	return server, nil
}

func (o *Orchestrator) logFirewall(res firewall.Result) {
	switch res.Status {
	case firewall.Applied:
		o.Log.Info().Str("tool", res.Tool).Str("rule", res.Rule.String()).Msg("firewall port opened")
	case firewall.Exists:
		o.Log.Debug().Str("tool", res.Tool).Str("rule", res.Rule.String()).Msg("firewall rule already present")
	case firewall.Skipped:
		o.Log.Info().Int("port", res.Rule.Port).Msg("no supported firewall tool; make sure the port is reachable")
	default:
		o.Log.Warn().
			Err(res.Err).
			Str("tool", res.Tool).
			Str("output", res.Output).
			Int("port", res.Rule.Port).
			Msg("could not open firewall port; participants may be unable to connect (try running as administrator)")
	}
}

func (o *Orchestrator) checkPort(ctx context.Context) {
	if o.Ports == nil || !o.Ports.InUse(o.Options.Port) {
		return
	}
	if !o.Options.FreePort {
		o.Log.Warn().Int("port", o.Options.Port).Msg("port already in use; the judge server may fail to bind (use --free-port)")
		return
	}
	if err := o.Ports.Free(ctx, o.Options.Port); err != nil {
		o.Log.Warn().Err(err).Int("port", o.Options.Port).Msg("could not free port")
	}
}
