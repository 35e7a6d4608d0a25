package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/joeblew999/judgeup/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	configInitPath  string
	configInitForce bool
)

// ConfigCmd is the parent command for judgeup.yaml handling.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create judgeup.yaml",
	Long: `Inspect the effective launch configuration or write a starter file.

Config file locations (first found wins):
  1. $JUDGEUP_CONFIG
  2. ./judgeup.yaml
  3. $JUDGEUP_HOME/config.yaml (default: ~/.judgeup/config.yaml)`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a judgeup.yaml with default values",
	Long: `Write the default configuration to ./judgeup.yaml (or --path).

Examples:
  judgeup config init
  judgeup config init --path ~/.judgeup/config.yaml
  judgeup config init --force            # Overwrite existing file`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

func init() {
	bindConfigFlag(configShowCmd.Flags())
	configInitCmd.Flags().StringVar(&configInitPath, "path", config.ConfigFileName, "Where to write the config file")
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "Overwrite existing file")

	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configInitCmd)
}

func runConfigShow(c *cobra.Command, args []string) error {
	cfg, path, err := loadConfig(c)
	if err != nil {
		return err
	}

	out := c.OutOrStdout()
	if path == "" {
		fmt.Fprintln(out, color.New(color.Faint).Sprint("# no config file found, showing defaults"))
	} else {
		fmt.Fprintln(out, color.New(color.Faint).Sprintf("# %s", path))
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	_, err = out.Write(data)
	return err
}

func runConfigInit(c *cobra.Command, args []string) error {
	if _, err := os.Stat(configInitPath); err == nil && !configInitForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configInitPath)
	}
	if err := config.DefaultConfig().Save(configInitPath); err != nil {
		return err
	}
	fmt.Fprintf(c.OutOrStdout(), "%s Wrote %s\n", color.GreenString("✓"), configInitPath)
	return nil
}
