// Package config holds runtime settings of the upload client and loads them
// from defaults, an optional JSON file and command-line flags, in that
// order of precedence.
package config

import "time"

// Config holds runtime settings for the uplink client.
//
// Fields:
//   - CollectorURL: base URL of the collector service.
//   - Username/Password: credentials for the collector's login endpoint.
//   - DatabasePath: path of the local SQLite database.
//   - RequestTimeout: per-request timeout of the shared HTTP client.
//   - UploadConcurrency: how many recordings are uploaded in parallel.
type Config struct {
	CollectorURL      string
	Username          string
	Password          string
	DatabasePath      string
	RequestTimeout    time.Duration
	UploadConcurrency int
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.CollectorURL = "http://127.0.0.1:8080"
	c.DatabasePath = "uplink.db"
	c.RequestTimeout = 30 * time.Second
	c.UploadConcurrency = 2
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
