package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/twosync/internal/timex"
)

// JSONConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify the timeout either as a
// string like "30s" or as integer nanoseconds. Pointer fields tell an absent
// key from an empty one.
type JSONConfig struct {
	DatabasePath   *string         `json:"database_path"`
	ExportEndpoint *string         `json:"export_endpoint"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
	OpenAIBaseURL  *string         `json:"openai_base_url"`
	LogLevel       *string         `json:"log_level"`
	LogFormat      *string         `json:"log_format"`
	LogFile        *string         `json:"log_file"`
	Archive        *ArchiveConfig  `json:"archive"`
	OpenAIKey      *string         `json:"openai_key"`
	TwosUserID     *string         `json:"twos_user_id"`
	TwosToken      *string         `json:"twos_token"`
}

// parseJSON overlays cfg with the keys present in the file at path. An empty
// path is a no-op.
func parseJSON(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var jc JSONConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.ExportEndpoint, jc.ExportEndpoint)
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	setString(&cfg.OpenAIBaseURL, jc.OpenAIBaseURL)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.LogFile, jc.LogFile)
	if jc.Archive != nil {
		cfg.Archive = *jc.Archive
	}
	setString(&cfg.OpenAIKey, jc.OpenAIKey)
	setString(&cfg.TwosUserID, jc.TwosUserID)
	setString(&cfg.TwosToken, jc.TwosToken)
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
