// Package config holds runtime settings for the admin console.
package config

import "time"

// Config holds runtime settings for the console binary.
//
// Fields:
//   - ServerAddr: base URL of the distribution backend.
//   - DataDir: directory for the credential database and the log file.
//   - RequestTimeout: per-fetch deadline.
//   - SearchDebounce: quiet period for free-text search input.
type Config struct {
	ServerAddr     string
	DataDir        string
	RequestTimeout time.Duration
	SearchDebounce time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerAddr = "http://localhost:5001"
	c.DataDir = "."
	c.RequestTimeout = 15 * time.Second
	c.SearchDebounce = 300 * time.Millisecond
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if a config file was given) and command-line flags. Later
// sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJSON(cfg)
	parseFlags(cfg)
	return cfg
}
