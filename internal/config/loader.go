package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	defaultConfigPath = "./config.yaml"
	defaultDotenvPath = ".env"
)

// Load builds the configuration with precedence ENV > YAML > env-default tags.
//
// A .env file (DOTENV_PATH, default ./.env) is applied first and never
// overrides variables already present in the process. The YAML file comes
// from CONFIG_PATH; when CONFIG_PATH is unset a missing ./config.yaml is not
// an error and only the environment is read.
func Load() (*Config, error) {
	_ = godotenv.Load(envOr("DOTENV_PATH", defaultDotenvPath))

	path, explicit := os.Getenv("CONFIG_PATH"), true
	if path == "" {
		path, explicit = defaultConfigPath, false
	}

	cfg, err := read(path, explicit)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}

func read(path string, required bool) (*Config, error) {
	var cfg Config

	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	case required || !errors.Is(statErr, fs.ErrNotExist):
		return nil, fmt.Errorf("config: file %s: %w", path, statErr)
	default:
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}
	return &cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
