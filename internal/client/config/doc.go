// Package config loads runtime configuration for the twosync CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c/--config.
//  3. Environment variables prefixed with TWOSYNC_, bound through viper,
//     including those read from .env files by godotenv. The real
//     environment wins over .env.
//  4. Command-line flags (see RegisterFlags), which override earlier values.
//
// The merged result is validated with go-playground/validator.
//
// # JSON schema
//
// The JSON loader uses timex.Duration for the timeout, so it can be either a
// string like "30s" or integer nanoseconds:
//
//	{
//	  "database_path": "twosync.db",
//	  "export_endpoint": "https://www.twosapp.com/apiV2/user/export",
//	  "request_timeout": "60s",
//	  "log_level": "info",
//	  "archive": {"bucket": "twos", "region": "us-east-1"}
//	}
//
// Primary API
//
//   - type Config                       holds every setting
//   - func Load(Sources) (*Config, error)
//   - func RegisterFlags(*pflag.FlagSet)
package config
