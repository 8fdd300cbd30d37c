package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/hireloop/internal/flagx"
	"github.com/dmitrijs2005/hireloop/internal/timex"
)

// JsonConfig is the on-disk shape of the server configuration. Durations
// accept "10m" style strings or integer nanoseconds.
type JsonConfig struct {
	HTTPAddr        string         `json:"http_addr"`
	DatabaseDSN     string         `json:"database_dsn"`
	RedisAddr       string         `json:"redis_addr"`
	SecretKey       string         `json:"secret_key"`
	TokenTTL        timex.Duration `json:"token_ttl"`
	OTPTTL          timex.Duration `json:"otp_ttl"`
	OTPMaxAttempts  int            `json:"otp_max_attempts"`
	BackupCodeCount int            `json:"backup_code_count"`
	LogLevel        string         `json:"log_level"`
}

// parseJson loads the file named by -c or -config, if any, and copies the
// fields it sets into config. It panics if the file cannot be read or parsed.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFile(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.HTTPAddr != "" {
		config.HTTPAddr = c.HTTPAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.RedisAddr != "" {
		config.RedisAddr = c.RedisAddr
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.TokenTTL.Duration > 0 {
		config.TokenTTL = c.TokenTTL.Duration
	}
	if c.OTPTTL.Duration > 0 {
		config.OTPTTL = c.OTPTTL.Duration
	}
	if c.OTPMaxAttempts > 0 {
		config.OTPMaxAttempts = c.OTPMaxAttempts
	}
	if c.BackupCodeCount > 0 {
		config.BackupCodeCount = c.BackupCodeCount
	}
	if c.LogLevel != "" {
		config.LogLevel = c.LogLevel
	}
}
