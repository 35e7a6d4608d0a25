// Package config provides centralized configuration and paths for judgeup.
//
// This package defines:
// - Default ports and behaviors for the judge server launch
// - The judgeup home directory (~/.judgeup/)
// - The judgeup.yaml launch configuration
//
// Config file locations (priority order):
//  1. $JUDGEUP_CONFIG
//  2. ./judgeup.yaml
//  3. $JUDGEUP_HOME/config.yaml (default: ~/.judgeup/config.yaml)
//
// A missing config file is not an error: defaults reproduce the classic
// launcher (first 192.x address, judge on port 5000, agent UI on 8000).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// === Default ports ===

const (
	// DefaultServerPort is the port the judge server listens on and the
	// port opened in the firewall.
	DefaultServerPort = 5000

	// DefaultAgentPort is the local port of the client agent UI on
	// participant machines.
	DefaultAgentPort = 8000
)

// === Default launch settings ===

const (
	// DefaultAddressPattern selects the LAN address. Historically the first
	// address starting with "192." was used.
	DefaultAddressPattern = "192."

	// DefaultServerScript is the judge server entry point, relative to the
	// server directory.
	DefaultServerScript = "main.py"

	// DefaultAgentCommand is the command participants run on their machines.
	DefaultAgentCommand = "python agent.py --server-ip ${JUDGE_IP} --server-port ${JUDGE_PORT}"

	// DefaultAgentURL is the address participants open after starting the agent.
	DefaultAgentURL = "http://127.0.0.1:${AGENT_PORT}"

	// DefaultFirewallRuleName names the inbound rule created for the judge port.
	DefaultFirewallRuleName = "Central Judge Server"
)

// DefaultIgnoreInterfaces are glob patterns for virtual interfaces that never
// carry the LAN address participants can reach.
func DefaultIgnoreInterfaces() []string {
	return []string{"veth*", "docker*", "br-*", "cni*", "flannel*", "vEthernet*"}
}

// === Default permissions ===

const (
	// DefaultDirPerms is the default permission mode for created directories.
	DefaultDirPerms = 0755

	// DefaultFilePerms is the default permission mode for created files.
	DefaultFilePerms = 0644
)

// Config is the judgeup.yaml launch configuration.
type Config struct {
	Address  AddressConfig  `yaml:"address"`
	Server   ServerConfig   `yaml:"server"`
	Agent    AgentConfig    `yaml:"agent"`
	Firewall FirewallConfig `yaml:"firewall"`
}

// AddressConfig controls LAN address resolution.
type AddressConfig struct {
	// Pattern is a prefix ("192."), glob ("192.168.*"), CIDR
	// ("192.168.0.0/16") or the keyword "private".
	Pattern string `yaml:"pattern"`
	// Interface, when set, is searched before every other interface.
	Interface string `yaml:"interface,omitempty"`
	// IgnoreInterfaces are interface name globs skipped during enumeration.
	IgnoreInterfaces []string `yaml:"ignore_interfaces,omitempty"`
}

// ServerConfig describes the judge server process.
type ServerConfig struct {
	Port int `yaml:"port"`
	// Program is the interpreter or binary. Empty means detect Python on PATH.
	Program string `yaml:"program,omitempty"`
	// Script is passed as the first argument. It defaults to main.py only
	// when Program is empty, so a compiled server can run without one.
	Script string   `yaml:"script"`
	Args   []string `yaml:"args,omitempty"`
	// Dir is the working directory of the server. Empty means the current directory.
	Dir string `yaml:"dir,omitempty"`
	// EnvFile is a KEY=VALUE file merged into the server environment.
	EnvFile string `yaml:"env_file,omitempty"`
	// FreePort terminates whatever already listens on Port before launch.
	FreePort bool `yaml:"free_port,omitempty"`
}

// AgentConfig describes what participants are told to run.
type AgentConfig struct {
	Port    int    `yaml:"port"`
	Command string `yaml:"command"`
	URL     string `yaml:"url"`
}

// FirewallConfig controls the best-effort inbound rule.
type FirewallConfig struct {
	Enabled  bool   `yaml:"enabled"`
	RuleName string `yaml:"rule_name"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	cfg := baseConfig()
	cfg.ApplyDefaults()
	return cfg
}

// baseConfig holds the defaults a config file is overlaid on. Server.Script
// is left for ApplyDefaults because it depends on Server.Program.
func baseConfig() *Config {
	return &Config{
		Address: AddressConfig{
			Pattern:          DefaultAddressPattern,
			IgnoreInterfaces: DefaultIgnoreInterfaces(),
		},
		Server: ServerConfig{
			Port: DefaultServerPort,
		},
		Agent: AgentConfig{
			Port:    DefaultAgentPort,
			Command: DefaultAgentCommand,
			URL:     DefaultAgentURL,
		},
		Firewall: FirewallConfig{
			Enabled:  true,
			RuleName: DefaultFirewallRuleName,
		},
	}
}

// Load finds and loads the config file, or returns defaults if none found.
// The returned path is empty when defaults are used.
func Load() (*Config, string, error) {
	path := FindConfigPath()
	if path == "" {
		return DefaultConfig(), "", nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path.
// File settings are overlaid on the defaults.
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	cfg := baseConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, path, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, path, nil
}

// Save writes config to the specified path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), DefaultDirPerms); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, DefaultFilePerms)
}

// ApplyDefaults fills in default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Address.Pattern == "" {
		c.Address.Pattern = DefaultAddressPattern
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.Server.Script == "" && c.Server.Program == "" {
		c.Server.Script = DefaultServerScript
	}
	if c.Agent.Port == 0 {
		c.Agent.Port = DefaultAgentPort
	}
	if c.Agent.Command == "" {
		c.Agent.Command = DefaultAgentCommand
	}
	if c.Agent.URL == "" {
		c.Agent.URL = DefaultAgentURL
	}
	if c.Firewall.RuleName == "" {
		c.Firewall.RuleName = DefaultFirewallRuleName
	}
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if err := validPort("server.port", c.Server.Port); err != nil {
		return err
	}
	if err := validPort("agent.port", c.Agent.Port); err != nil {
		return err
	}
	return nil
}

func validPort(field string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s: %d is not a valid TCP port", field, port)
	}
	return nil
}
