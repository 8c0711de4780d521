package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// EnvMode is the environment variable selecting the pipeline mode.
const EnvMode = "STAGEHAND_ENV"

// DefaultPath is the conventional project configuration path.
const DefaultPath = ".stagehand/config.json"

// Load reads configuration: defaults, overridden by the project file at path
// (if present), overridden by STAGEHAND_ENV for the mode. A missing file is
// not an error; malformed JSON is.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := mergeFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if mode := os.Getenv(EnvMode); mode != "" {
		cfg.Mode = mode
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeDevelopment
	}

	return cfg, nil
}

// LoadDefault loads configuration from the conventional project path.
func LoadDefault() (*Config, error) {
	return Load(DefaultPath)
}

// mergeFile unmarshals path over base. Fields absent from the file keep
// their defaults; tool entries merge by key.
func mergeFile(base *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}

	if err := json.Unmarshal(data, base); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
