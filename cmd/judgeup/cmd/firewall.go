package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/joeblew999/judgeup/internal/firewall"
	"github.com/spf13/cobra"
)

var firewallRuleName string

// FirewallCmd opens the judge port without launching the server.
var FirewallCmd = &cobra.Command{
	Use:   "firewall",
	Short: "Allow inbound TCP on the judge port",
	Long: `Add an inbound allow rule for the judge port and report the outcome.

Uses netsh on Windows and ufw or firewall-cmd on Linux. Other platforms are
skipped. Adding a rule usually needs administrator or root privileges.

Examples:
  judgeup firewall
  judgeup firewall --port 6000 --name "Judge 6000"`,
	Args: cobra.NoArgs,
	RunE: runFirewall,
}

func init() {
	bindConfigFlag(FirewallCmd.Flags())
	bindPortFlag(FirewallCmd.Flags())
	FirewallCmd.Flags().StringVar(&firewallRuleName, "name", "", "Rule name (default: firewall.rule_name from config)")
}

func runFirewall(c *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}
	rule := firewall.Rule{Name: cfg.Firewall.RuleName, Port: cfg.Server.Port, Protocol: "TCP"}
	if firewallRuleName != "" {
		rule.Name = firewallRuleName
	}

	res := firewall.New().Open(c.Context(), rule)
	printFirewallResult(c.OutOrStdout(), res)
	if res.Status == firewall.Failed {
		return &ExitError{Code: 1}
	}
	return nil
}

func printFirewallResult(w io.Writer, res firewall.Result) {
	switch res.Status {
	case firewall.Applied:
		fmt.Fprintf(w, "%s Opened %s with %s\n", color.GreenString("✓"), res.Rule, res.Tool)
	case firewall.Exists:
		fmt.Fprintf(w, "%s %s already allowed by %s\n", color.GreenString("✓"), res.Rule, res.Tool)
	case firewall.Skipped:
		fmt.Fprintf(w, "%s No supported firewall tool on this platform; %s unchanged\n", color.YellowString("-"), res.Rule)
	default:
		fmt.Fprintf(w, "%s Could not open %s: %v\n", color.RedString("✗"), res.Rule, res.Err)
		if res.Output != "" {
			fmt.Fprintln(w, res.Output)
		}
		fmt.Fprintf(w, "%s Try again as administrator (Windows) or with sudo (Linux).\n", color.YellowString("💡"))
	}
}
