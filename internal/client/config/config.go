package config

import "time"

// Config holds runtime settings for the ClipShare CLI.
//
// Fields:
//   - ServerURL: base URL of the HTTP API, e.g. "http://127.0.0.1:8080".
//   - RequestTimeout: bound for ordinary API calls.
//   - UploadTimeout: bound for a whole video upload.
//   - OnlineCheckInterval: how often the client probes /healthz.
type Config struct {
	ServerURL           string
	RequestTimeout      time.Duration
	UploadTimeout       time.Duration
	OnlineCheckInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.RequestTimeout = 10 * time.Second
	c.UploadTimeout = 5 * time.Minute
	c.OnlineCheckInterval = 3 * time.Second
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
