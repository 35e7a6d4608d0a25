package cmd

import (
	"github.com/joeblew999/judgeup/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Flags shared by the commands that load judgeup.yaml and resolve the address.
var (
	configPath string
	pattern    string
	iface      string
	port       int
)

func bindConfigFlag(fs *pflag.FlagSet) {
	fs.StringVarP(&configPath, "config", "c", "", "Path to judgeup.yaml (default: search ./judgeup.yaml, ~/.judgeup/config.yaml)")
}

func bindAddressFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&pattern, "pattern", "p", config.DefaultAddressPattern, `Address pattern: prefix "192.", glob "192.168.*", CIDR "192.168.0.0/16" or "private"`)
	fs.StringVarP(&iface, "interface", "i", "", "Preferred network interface name")
}

func bindPortFlag(fs *pflag.FlagSet) {
	fs.IntVar(&port, "port", config.DefaultServerPort, "Judge server port")
}

// loadConfig reads judgeup.yaml and applies the flags the user set
// explicitly, so flag defaults never override the file.
func loadConfig(c *cobra.Command) (*config.Config, string, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if configPath != "" {
		cfg, path, err = config.LoadFromPath(configPath)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return nil, path, err
	}

	flags := c.Flags()
	if flags.Changed("pattern") {
		cfg.Address.Pattern = pattern
	}
	if flags.Changed("interface") {
		cfg.Address.Interface = iface
	}
	if flags.Changed("port") {
		cfg.Server.Port = port
	}
	return cfg, path, cfg.Validate()
}
