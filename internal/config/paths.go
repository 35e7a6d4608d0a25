package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath is the environment variable for an explicit config path.
	EnvConfigPath = "JUDGEUP_CONFIG"

	// EnvHome overrides the judgeup home directory.
	EnvHome = "JUDGEUP_HOME"

	// ConfigFileName is the config file looked up in the working directory.
	ConfigFileName = "judgeup.yaml"
)

// JudgeupHome returns the judgeup home directory.
// Uses JUDGEUP_HOME env var if set, otherwise ~/.judgeup
func JudgeupHome() string {
	if h := os.Getenv(EnvHome); h != "" {
		return h
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".judgeup"
	}
	return filepath.Join(home, ".judgeup")
}

// HomeConfigPath returns ~/.judgeup/config.yaml (or $JUDGEUP_HOME/config.yaml).
func HomeConfigPath() string {
	return filepath.Join(JudgeupHome(), "config.yaml")
}

// FindConfigPath searches for a config file in priority order:
// 1. $JUDGEUP_CONFIG (explicit path)
// 2. ./judgeup.yaml (working directory)
// 3. $JUDGEUP_HOME/config.yaml
//
// Returns empty string if no config file found.
func FindConfigPath() string {
	if path := os.Getenv(EnvConfigPath); path != "" {
		if fileExists(path) {
			return path
		}
	}

	if fileExists(ConfigFileName) {
		if abs, err := filepath.Abs(ConfigFileName); err == nil {
			return abs
		}
		return ConfigFileName
	}

	if path := HomeConfigPath(); fileExists(path) {
		return path
	}

	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
