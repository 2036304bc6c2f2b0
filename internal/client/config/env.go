package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by parseEnv, joined to
// the key with an underscore (TWOSYNC_DATABASE_PATH).
const EnvPrefix = "TWOSYNC"

const keyRequestTimeout = "request_timeout"

// envStrings maps environment keys to the string fields they set.
func envStrings(cfg *Config) map[string]*string {
	return map[string]*string{
		"database_path":      &cfg.DatabasePath,
		"export_endpoint":    &cfg.ExportEndpoint,
		"openai_base_url":    &cfg.OpenAIBaseURL,
		"log_level":          &cfg.LogLevel,
		"log_format":         &cfg.LogFormat,
		"log_file":           &cfg.LogFile,
		"archive_bucket":     &cfg.Archive.Bucket,
		"archive_region":     &cfg.Archive.Region,
		"archive_endpoint":   &cfg.Archive.Endpoint,
		"archive_access_key": &cfg.Archive.AccessKey,
		"archive_secret_key": &cfg.Archive.SecretKey,
		"archive_prefix":     &cfg.Archive.Prefix,
		"openai_key":         &cfg.OpenAIKey,
		"twos_user_id":       &cfg.TwosUserID,
		"twos_token":         &cfg.TwosToken,
	}
}

// newEnvViper returns a viper instance bound to TWOSYNC_* variables, with the
// values from the .env files registered as defaults. The process environment
// therefore wins over .env, and the first file naming a key wins over later
// ones.
func newEnvViper(files []string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	seen := map[string]bool{}
	for _, f := range files {
		m, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		for name, val := range m {
			key, ok := strings.CutPrefix(name, EnvPrefix+"_")
			if !ok {
				continue
			}
			key = strings.ToLower(key)
			if !seen[key] {
				seen[key] = true
				v.SetDefault(key, val)
			}
		}
	}
	return v, nil
}

// parseEnv overlays cfg with TWOSYNC_* variables from the environment and
// the given .env files.
func parseEnv(cfg *Config, files []string) error {
	v, err := newEnvViper(files)
	if err != nil {
		return err
	}

	for key, dst := range envStrings(cfg) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	if v.IsSet(keyRequestTimeout) {
		d, err := cast.ToDurationE(v.Get(keyRequestTimeout))
		if err != nil {
			return fmt.Errorf("%s_%s: %w", EnvPrefix, strings.ToUpper(keyRequestTimeout), err)
		}
		cfg.RequestTimeout = d
	}
	return nil
}
