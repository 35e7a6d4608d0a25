package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/joeblew999/judgeup/internal/netaddr"
	"github.com/spf13/cobra"
)

var (
	ipAll  bool
	ipJSON bool
)

// IPCmd prints the address judgeup would announce.
var IPCmd = &cobra.Command{
	Use:   "ip",
	Short: "Print the LAN address that would be announced",
	Long: `Print the local address selected by --pattern, without launching anything.

With --all, every enumerated interface address is listed in resolution order
and matching ones are marked.

Examples:
  judgeup ip
  judgeup ip --pattern private
  judgeup ip --all
  judgeup ip --all --json`,
	Args: cobra.NoArgs,
	RunE: runIP,
}

func init() {
	bindConfigFlag(IPCmd.Flags())
	bindAddressFlags(IPCmd.Flags())
	IPCmd.Flags().BoolVarP(&ipAll, "all", "a", false, "List every candidate address")
	IPCmd.Flags().BoolVar(&ipJSON, "json", false, "Output as JSON")
}

func runIP(c *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}
	matcher, err := netaddr.ParsePattern(cfg.Address.Pattern)
	if err != nil {
		return err
	}
	resolver := netaddr.NewResolver(matcher, cfg.Address.Interface, cfg.Address.IgnoreInterfaces)

	out := c.OutOrStdout()
	if ipAll {
		candidates, err := resolver.Candidates()
		if err != nil {
			return err
		}
		if ipJSON {
			return writeJSON(out, candidates)
		}
		return writeCandidates(out, candidates)
	}

	ip, err := resolver.Resolve()
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}
	if ipJSON {
		return writeJSON(out, map[string]string{"ip": ip})
	}
	fmt.Fprintln(out, ip)
	return nil
}

func writeCandidates(w io.Writer, candidates []netaddr.Candidate) error {
	if len(candidates) == 0 {
		fmt.Fprintln(w, "No interface addresses found")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MATCH\tINTERFACE\tFAMILY\tADDRESS")
	for _, cand := range candidates {
		mark := ""
		if cand.Matched {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", mark, cand.Interface, cand.Family, cand.Address)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
