package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docviewer/internal/foundation/errors"
)

// Example returns the configuration written by Init.
func Example() *Config {
	cfg := Default()
	cfg.Git.Root = "/var/lib/docviewer/repositories"
	cfg.Server.AuthToken = "${DOCVIEWER_TOKEN}"
	cfg.Metrics.Enabled = true
	cfg.Forges = []*ForgeConfig{
		{
			Name:   "github",
			Type:   ForgeGitHub,
			Auth:   &AuthConfig{Type: AuthTypeToken, Token: "${GITHUB_TOKEN}"},
			Owners: []string{"example-org"},
		},
		{
			Name:    "codeberg",
			Type:    ForgeForgejo,
			APIURL:  "https://codeberg.org/api/v1",
			BaseURL: "https://codeberg.org",
			Owners:  []string{"example-user"},
			Exclude: []string{"*-archive"},
		},
	}
	return cfg
}

// Init writes an example configuration to path. An existing file is only
// replaced when force is set.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).
			Build()
	}

	data, err := yaml.Marshal(Example())
	if err != nil {
		return errors.InternalError("failed to marshal example configuration").WithCause(err).Build()
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.FileSystemError("failed to write configuration file").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	return nil
}
