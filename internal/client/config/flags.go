package config

import (
	"github.com/spf13/pflag"
)

// Flag names shared by RegisterFlags and applyFlags.
const (
	FlagConfig        = "config"
	FlagDatabase      = "db"
	FlagEndpoint      = "endpoint"
	FlagTimeout       = "timeout"
	FlagOpenAIBaseURL = "openai-base-url"
	FlagLogLevel      = "log-level"
	FlagLogFormat     = "log-format"
	FlagLogFile       = "log-file"
)

// RegisterFlags declares the configuration flags on fs. Defaults are shown
// in help output only; Load applies a flag when the user actually set it.
//
//	-c, --config string           JSON config file
//	-d, --db string               SQLite cache path
//	    --endpoint string         Twos export URL
//	    --timeout duration        export request timeout
//	    --openai-base-url string  OpenAI API base URL
//	    --log-level string        debug, info, warn or error
//	    --log-format string       text or json
//	    --log-file string         rotate logs into this file
func RegisterFlags(fs *pflag.FlagSet) {
	d := &Config{}
	d.LoadDefaults()

	fs.StringP(FlagConfig, "c", "", "JSON config file")
	fs.StringP(FlagDatabase, "d", d.DatabasePath, "SQLite cache path")
	fs.String(FlagEndpoint, d.ExportEndpoint, "Twos export URL")
	fs.Duration(FlagTimeout, d.RequestTimeout, "export request timeout")
	fs.String(FlagOpenAIBaseURL, "", "OpenAI API base URL")
	fs.String(FlagLogLevel, d.LogLevel, "log level: debug, info, warn or error")
	fs.String(FlagLogFormat, d.LogFormat, "log format: text or json")
	fs.String(FlagLogFile, "", "write logs to this file with rotation")
}

// ConfigFile returns the value of --config, or "" when fs lacks it.
func ConfigFile(fs *pflag.FlagSet) string {
	if fs == nil || fs.Lookup(FlagConfig) == nil {
		return ""
	}
	v, _ := fs.GetString(FlagConfig)
	return v
}

// applyFlags copies the flags the user set on fs into cfg.
func applyFlags(cfg *Config, fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}

	strs := map[string]*string{
		FlagDatabase:      &cfg.DatabasePath,
		FlagEndpoint:      &cfg.ExportEndpoint,
		FlagOpenAIBaseURL: &cfg.OpenAIBaseURL,
		FlagLogLevel:      &cfg.LogLevel,
		FlagLogFormat:     &cfg.LogFormat,
		FlagLogFile:       &cfg.LogFile,
	}
	for name, dst := range strs {
		if f := fs.Lookup(name); f == nil || !f.Changed {
			continue
		}
		v, err := fs.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	if f := fs.Lookup(FlagTimeout); f != nil && f.Changed {
		v, err := fs.GetDuration(FlagTimeout)
		if err != nil {
			return err
		}
		cfg.RequestTimeout = v
	}
	return nil
}
