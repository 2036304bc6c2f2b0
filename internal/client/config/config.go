package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/twosync/internal/client/client"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
)

// ArchiveConfig points the optional chunk archive at an S3-compatible bucket.
// An empty Bucket disables the archive.
type ArchiveConfig struct {
	Bucket    string `json:"bucket"`
	Region    string `json:"region" validate:"required_with=Bucket"`
	Endpoint  string `json:"endpoint" validate:"omitempty,url"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key" validate:"required_with=AccessKey"`
	Prefix    string `json:"prefix"`
}

// Config holds runtime settings for the twosync CLI.
//
// The credential fields are optional overrides; when set they take
// precedence over the values stored with `twosync credentials`.
type Config struct {
	DatabasePath   string        `validate:"required"`
	ExportEndpoint string        `validate:"required,url"`
	RequestTimeout time.Duration `validate:"gte=0"`
	OpenAIBaseURL  string        `validate:"omitempty,url"`

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=text json"`
	LogFile   string

	Archive ArchiveConfig

	OpenAIKey  string
	TwosUserID string
	TwosToken  string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = "twosync.db"
	c.ExportEndpoint = client.DefaultExportEndpoint
	c.RequestTimeout = 60 * time.Second
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("invalid config: %s", verrs.Error())
		}
		return err
	}
	return nil
}

// Sources lists where Load reads from. Every field is optional.
type Sources struct {
	// File is a JSON config file.
	File string
	// EnvFiles are .env files; missing ones are skipped.
	EnvFiles []string
	// Flags are applied only when marked Changed.
	Flags *pflag.FlagSet
}

// Load constructs a Config, applies defaults, then overlays the JSON file,
// the environment and the command line. Later sources take precedence over
// earlier ones. The result is validated.
func Load(src Sources) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, src.File); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, src.EnvFiles); err != nil {
		return nil, err
	}
	if err := applyFlags(cfg, src.Flags); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
