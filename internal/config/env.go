// Package config provides environment overrides.
package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
)

// EnvConfig holds settings read from the environment. Empty values mean unset.
type EnvConfig struct {
	APIURL   string        `env:"CTFSENSEI_API_URL"`
	Username string        `env:"CTFSENSEI_USERNAME"`
	Timeout  time.Duration `env:"CTFSENSEI_TIMEOUT"`
	LogLevel string        `env:"CTFSENSEI_LOG_LEVEL"`
}

// LoadDotEnv loads a .env file from the given path when it exists.
// Variables already present in the environment win.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "failed to stat .env")
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrap(err, "failed to load .env")
	}
	return nil
}

// LoadEnv parses environment overrides.
func LoadEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return EnvConfig{}, errors.Wrap(err, "parse env")
	}
	return cfg, nil
}
