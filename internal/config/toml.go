// Package config provides configuration helpers and TOML parsing.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Client ClientConfig `toml:"client"`
}

// ClientConfig maps client-related settings.
type ClientConfig struct {
	APIURL        *string `toml:"api-url"`
	Username      *string `toml:"username"`
	Timeout       *string `toml:"timeout"`
	LogLevel      *string `toml:"log-level"`
	SuccessMarker *string `toml:"success-marker"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, errors.New("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, errors.Wrap(err, "failed to stat config")
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, errors.Wrap(err, "failed to decode config")
	}
	return cfg, nil
}
