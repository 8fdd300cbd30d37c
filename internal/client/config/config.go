package config

import "time"

// Config holds runtime settings for the hireloop CLI.
//
// Fields:
//   - ServerURL: scheme://host:port of the credential store.
//   - RequestTimeout: upper bound for a single credential store request.
//   - SessionDBPath: SQLite file holding the session token.
//   - LogLevel: debug, info, warn or error.
//   - OTELEndpoint: OTLP/HTTP trace endpoint; empty disables tracing.
type Config struct {
	ServerURL      string        `env:"HIRELOOP_SERVER_URL"`
	RequestTimeout time.Duration `env:"HIRELOOP_REQUEST_TIMEOUT"`
	SessionDBPath  string        `env:"HIRELOOP_SESSION_DB"`
	LogLevel       string        `env:"HIRELOOP_LOG_LEVEL"`
	OTELEndpoint   string        `env:"HIRELOOP_OTEL_ENDPOINT"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.RequestTimeout = 15 * time.Second
	c.SessionDBPath = "hireloop_session.db"
	c.LogLevel = "warn"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment, JSON (if present) and command-line flags (if present).
// Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
