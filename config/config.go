// Package config reads the toolchain's environment-backed settings. Flags
// always win over the environment; these values only provide defaults.
package config

import (
	"github.com/caarlos0/env/v6"
)

// Config holds the settings every cobalt subcommand honours.
type Config struct {
	// Debug makes build and run behave as if --debug was passed.
	Debug bool `env:"COBALT_DEBUG"`
	// NoColor disables colored diagnostics and version output.
	NoColor bool `env:"COBALT_NO_COLOR"`
}

// Load parses the environment into a Config. Unset variables leave the zero
// values in place.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
