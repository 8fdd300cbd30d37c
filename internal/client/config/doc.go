// Package config loads runtime configuration for the hireloop CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. HIRELOOP_* environment variables (see parseEnv).
//  3. Optional JSON file selected with -c or -config (see parseJson).
//  4. Command-line flags (see parseFlags), which override everything else.
//
// Supported flags
//
//	-a string   credential store URL
//	-t int      request timeout (seconds)
//	-d string   session database file
//	-l string   log level
//
// # JSON schema
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "request_timeout": "15s",
//	  "session_db_path": "hireloop_session.db",
//	  "log_level": "warn"
//	}
package config
