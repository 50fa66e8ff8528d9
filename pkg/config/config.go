// Package config reads p0c's environment settings.
//
// Only logging is configurable from the environment. Nothing here can change
// the assembly a given program compiles to.
package config

import (
	"os"
	"strings"

	"github.com/xyproto/env/v2"

	"github.com/GriffinCanCode/p0c/pkg/logger"
)

// Environment variables
const (
	EnvLogLevel  = "P0C_LOG_LEVEL"
	EnvLogFormat = "P0C_LOG_FORMAT"
	EnvLogFile   = "P0C_LOG_FILE"
)

// Config is the resolved process configuration. Diagnostic color is decided
// separately by diag.UseColor.
type Config struct {
	Log logger.Config
}

// Load reads the environment. verbose forces debug logging with source
// locations, as -v does on the command line.
func Load(verbose bool) Config {
	log := logger.DefaultConfig()
	log.Level = logger.ParseLevel(env.Str(EnvLogLevel, "warn"))
	log.LogFile = env.Str(EnvLogFile)

	switch format := strings.ToLower(env.Str(EnvLogFormat, "text")); format {
	case "json":
		log.Format = "json"
	default:
		log.Format = "text"
	}

	if verbose {
		log.Level = logger.LevelDebug
		log.AddSource = true
	}
	log.Output = os.Stderr

	return Config{Log: log}
}

// Apply initializes the global logger from c
func (c Config) Apply() error {
	return logger.Init(c.Log)
}
