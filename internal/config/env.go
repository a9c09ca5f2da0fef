package config

import (
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/docviewer/internal/foundation/errors"
)

// EnvPrefix prefixes every environment override, e.g. DOCVIEWER_SERVER_ADDR.
const EnvPrefix = "DOCVIEWER_"

var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads .env and .env.local from the directory holding the config
// file. Existing process environment variables are never overwritten.
func loadEnvFiles(configPath string) error {
	dir := filepath.Dir(configPath)
	for _, name := range envFiles {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return errors.ConfigError("failed to load environment file").
				WithCause(err).
				WithContext("path", p).
				Build()
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return errors.ConfigError("invalid environment override").
			WithCause(err).
			Build()
	}
	return nil
}
