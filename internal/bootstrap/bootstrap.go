// Package bootstrap initializes logging configuration before other packages.
//
// This package MUST be imported first (using a blank import) in main.go so its
// init() runs before any package that logs during its own initialization.
//
// The level comes from JUDGEUP_LOG_LEVEL (trace, debug, info, warn, error).
// Log lines go to stderr through a console writer, keeping stdout free for
// the connection banner and for machine-readable output such as `ip --json`.
package bootstrap

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevelEnv is the environment variable that selects the log level.
const LogLevelEnv = "JUDGEUP_LOG_LEVEL"

func init() {
	level := os.Getenv(LogLevelEnv)
	if level == "" {
		level = "info"
	}

	logLevel, err := zerolog.ParseLevel(level)
	if err != nil || logLevel == zerolog.NoLevel {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
	}).With().Timestamp().Logger()
}
