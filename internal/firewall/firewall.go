// Package firewall opens a single inbound port so participants on the LAN
// can reach the judge server.
//
// Opening the port is best-effort. Open never returns an error; it returns a
// Result the caller logs. A missing tool or insufficient privileges only
// degrades connectivity, it never blocks startup.
//
// Backends:
//   - windows: netsh advfirewall (skipped when the rule already exists)
//   - linux:   ufw, falling back to firewall-cmd
//   - others:  skipped, there is no port-level rule to add
package firewall

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// Status is the outcome of an Open call.
type Status int

const (
	// Applied means a rule was added.
	Applied Status = iota
	// Exists means an identical rule was already present.
	Exists
	// Skipped means no supported firewall tool was found.
	Skipped
	// Failed means the tool ran and reported an error.
	Failed
)

func (s Status) String() string {
	switch s {
	case Applied:
		return "applied"
	case Exists:
		return "exists"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Rule is an inbound allow rule for one port.
type Rule struct {
	Name     string
	Port     int
	Protocol string // "TCP" when empty
}

func (r Rule) protocol() string {
	if r.Protocol == "" {
		return "TCP"
	}
	return strings.ToUpper(r.Protocol)
}

func (r Rule) String() string {
	return fmt.Sprintf("%s %d/%s", r.Name, r.Port, r.protocol())
}

// Result describes what happened when opening a port.
type Result struct {
	Rule   Rule
	Tool   string
	Status Status
	Output string
	Err    error
}

// OK reports whether the port is known to be open.
func (r Result) OK() bool {
	return r.Status == Applied || r.Status == Exists
}

// Opener adds firewall rules using the platform's command-line tool.
type Opener struct {
	Runner Runner
	GOOS   string
}

// New returns an Opener for the current platform.
func New() *Opener {
	return &Opener{Runner: ExecRunner{}, GOOS: runtime.GOOS}
}

// Open adds an inbound allow rule for rule.Port.
func (o *Opener) Open(ctx context.Context, rule Rule) Result {
	if rule.Port < 1 || rule.Port > 65535 {
		return Result{Rule: rule, Status: Failed, Err: fmt.Errorf("invalid port %d", rule.Port)}
	}

	switch o.GOOS {
	case "windows":
		return o.openNetsh(ctx, rule)
	case "linux":
		return o.openLinux(ctx, rule)
	default:
		return Result{Rule: rule, Status: Skipped}
	}
}

func (o *Opener) openNetsh(ctx context.Context, rule Rule) Result {
	res := Result{Rule: rule, Tool: "netsh"}
	if _, err := o.Runner.LookPath("netsh"); err != nil {
		res.Status = Skipped
		return res
	}

	// "show rule" exits non-zero when no rule by that name exists. A rule with
	// the same name left behind for another port does not count.
	out, err := o.Runner.Run(ctx, "netsh", "advfirewall", "firewall", "show", "rule", "name="+rule.Name)
	if err == nil && netshAllowsPort(string(out), rule.Port) {
		res.Status = Exists
		return res
	}

	out, err = o.Runner.Run(ctx, "netsh",
		"advfirewall", "firewall", "add", "rule",
		"name="+rule.Name,
		"dir=in",
		"action=allow",
		"protocol="+rule.protocol(),
		"localport="+strconv.Itoa(rule.Port),
	)
	return finish(res, out, err)
}

// netshAllowsPort reports whether any rule in `netsh advfirewall firewall show
// rule` output lists port under LocalPort. Values are "Any", a single port,
// a range "5000-5010", or a comma-separated mix.
func netshAllowsPort(output string, port int) bool {
	for _, line := range strings.Split(output, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "LocalPort") {
			continue
		}
		for _, item := range strings.Split(value, ",") {
			item = strings.TrimSpace(item)
			if strings.EqualFold(item, "Any") {
				return true
			}
			lo, hi, isRange := strings.Cut(item, "-")
			if !isRange {
				hi = lo
			}
			from, err1 := strconv.Atoi(strings.TrimSpace(lo))
			to, err2 := strconv.Atoi(strings.TrimSpace(hi))
			if err1 == nil && err2 == nil && from <= port && port <= to {
				return true
			}
		}
	}
	return false
}

func (o *Opener) openLinux(ctx context.Context, rule Rule) Result {
	portProto := strconv.Itoa(rule.Port) + "/" + strings.ToLower(rule.protocol())

	if _, err := o.Runner.LookPath("ufw"); err == nil {
		out, err := o.Runner.Run(ctx, "ufw", "allow", portProto, "comment", rule.Name)
		res := finish(Result{Rule: rule, Tool: "ufw"}, out, err)
		if res.Status == Applied && strings.Contains(res.Output, "Skipping adding existing rule") {
			res.Status = Exists
		}
		return res
	}

	if _, err := o.Runner.LookPath("firewall-cmd"); err == nil {
		out, err := o.Runner.Run(ctx, "firewall-cmd", "--add-port="+portProto)
		res := finish(Result{Rule: rule, Tool: "firewall-cmd"}, out, err)
		if res.Status == Applied && strings.Contains(res.Output, "ALREADY_ENABLED") {
			res.Status = Exists
		}
		return res
	}

	return Result{Rule: rule, Status: Skipped}
}

func finish(res Result, out []byte, err error) Result {
	res.Output = strings.TrimSpace(string(out))
	if err != nil {
		res.Status = Failed
		res.Err = fmt.Errorf("%s: %w", res.Tool, err)
		return res
	}
	res.Status = Applied
	return res
}
