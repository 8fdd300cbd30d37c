// Package config handles configuration for the reference credential store:
// defaults, environment, JSON overlay and command-line flags.
package config

import "time"

// Config holds runtime settings for the hireloop credential store.
//
// Fields:
//   - HTTPAddr: bind address for the JSON API.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty keeps accounts in memory.
//   - RedisAddr: host:port of the OTP store. Empty keeps codes in memory.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Do not use the default in prod.
//   - TokenTTL: lifetime of an access token.
//   - OTPTTL: how long an emailed code stays valid.
//   - OTPMaxAttempts: wrong guesses allowed before a code is burned.
//   - BackupCodeCount: backup codes issued per second-factor enrollment.
//   - LogLevel: debug, info, warn or error.
//   - OTELEndpoint: OTLP/HTTP trace endpoint; empty disables tracing.
type Config struct {
	HTTPAddr        string        `env:"HIRELOOP_HTTP_ADDR"`
	DatabaseDSN     string        `env:"HIRELOOP_DATABASE_DSN"`
	RedisAddr       string        `env:"HIRELOOP_REDIS_ADDR"`
	SecretKey       string        `env:"HIRELOOP_SECRET_KEY"`
	TokenTTL        time.Duration `env:"HIRELOOP_TOKEN_TTL"`
	OTPTTL          time.Duration `env:"HIRELOOP_OTP_TTL"`
	OTPMaxAttempts  int           `env:"HIRELOOP_OTP_MAX_ATTEMPTS"`
	BackupCodeCount int           `env:"HIRELOOP_BACKUP_CODE_COUNT"`
	LogLevel        string        `env:"HIRELOOP_LOG_LEVEL"`
	OTELEndpoint    string        `env:"HIRELOOP_OTEL_ENDPOINT"`
}

// LoadDefaults populates Config with development defaults.
// NOTE: the secret key must be overridden outside of local development.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8080"
	c.SecretKey = "secretKey"
	c.TokenTTL = 24 * time.Hour
	c.OTPTTL = 10 * time.Minute
	c.OTPMaxAttempts = 5
	c.BackupCodeCount = 10
	c.LogLevel = "info"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from the environment, an optional JSON file and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
