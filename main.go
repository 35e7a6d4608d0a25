// judgeup - LAN bootstrapper for the central judge server
//
// Finds this machine's LAN address, tells participants how to connect,
// opens the judge port and runs the judge server until it exits.
package main

import (
	"os"

	// Bootstrap MUST be imported first to set the log level before anything logs
	_ "github.com/joeblew999/judgeup/internal/bootstrap"

	"github.com/joeblew999/judgeup/cmd/judgeup/cmd"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "judgeup",
		Short: "Announce the LAN address and run the central judge server",
		Long: `judgeup starts the central judge server for a local contest network.

WHAT IT DOES:
  1. Finds this machine's LAN IPv4 address (first one starting with "192.")
  2. Prints the command participants run to connect their agent
  3. Opens the judge port (5000) in the OS firewall, best-effort
  4. Runs the judge server (python main.py) until it exits

Running judgeup with no command is the same as 'judgeup up'.

KEY COMMANDS:
  up        - Full startup (default)
  ip        - Show the address that would be announced
  firewall  - Open the judge port only
  config    - Show or create judgeup.yaml`,
		Args:          cobra.NoArgs,
		RunE:          cmd.RunUp,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.BindUpFlags(rootCmd.Flags())

	// Pass version to the version command
	cmd.SetVersion(Version)

	rootCmd.AddCommand(cmd.UpCmd)
	rootCmd.AddCommand(cmd.IPCmd)
	rootCmd.AddCommand(cmd.FirewallCmd)
	rootCmd.AddCommand(cmd.ConfigCmd)
	rootCmd.AddCommand(cmd.VersionCmd)

	os.Exit(cmd.Execute(rootCmd))
}
