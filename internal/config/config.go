package config

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docviewer/internal/foundation/errors"
	"git.home.luguber.info/inful/docviewer/internal/retry"
)

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = "docviewer.yaml"

// Config represents the application configuration.
type Config struct {
	Server  ServerConfig   `yaml:"server" envPrefix:"SERVER_"`
	Logging LoggingConfig  `yaml:"logging" envPrefix:"LOG_"`
	Metrics MetricsConfig  `yaml:"metrics" envPrefix:"METRICS_"`
	Git     GitConfig      `yaml:"git" envPrefix:"GIT_"`
	Forges  []*ForgeConfig `yaml:"forges,omitempty"`
	Retry   RetryConfig    `yaml:"retry" envPrefix:"RETRY_"`
	Scan    ScanConfig     `yaml:"scan" envPrefix:"SCAN_"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string        `yaml:"addr" env:"ADDR"`
	ReadTimeout    time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
	// AuthToken grants read access to documentation metadata. Empty disables the check.
	AuthToken string `yaml:"auth_token,omitempty" env:"AUTH_TOKEN"`
}

type LoggingConfig struct {
	Level  LogLevel  `yaml:"level" env:"LEVEL"`
	Format LogFormat `yaml:"format" env:"FORMAT"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Path    string `yaml:"path" env:"PATH"`
}

// GitConfig configures the local repository opener.
type GitConfig struct {
	// Root holds repositories as <namespace>/<name>[.git].
	Root string `yaml:"root" env:"ROOT"`
}

// RetryConfig configures retries of transient forge failures.
type RetryConfig struct {
	Mode       retry.Mode    `yaml:"mode" env:"MODE"`
	Initial    time.Duration `yaml:"initial" env:"INITIAL"`
	Max        time.Duration `yaml:"max" env:"MAX"`
	MaxRetries *int          `yaml:"max_retries,omitempty" env:"MAX_RETRIES"`
}

// Policy converts the section into a retry policy.
func (r RetryConfig) Policy() retry.Policy {
	maxRetries := -1
	if r.MaxRetries != nil {
		maxRetries = *r.MaxRetries
	}
	return retry.NewPolicy(r.Mode, r.Initial, r.Max, maxRetries)
}

type ScanConfig struct {
	Concurrency int `yaml:"concurrency" env:"CONCURRENCY"`
}

// Load reads configuration from path. Loading order: .env files next to the
// config file, ${VAR} expansion, strict YAML decode, DOCVIEWER_* environment
// overrides, defaults. The result is not validated; call Validate.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext("path", path).
				Build()
		}
		return nil, errors.ConfigError("failed to read configuration file").
			WithCause(err).
			WithContext("path", path).
			Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.ConfigError("failed to parse configuration file").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	return cfg, nil
}

// Parse decodes configuration content, applying environment expansion,
// overrides and defaults like Load.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60 * time.Second
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 30 * time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	def := retry.DefaultPolicy()
	if cfg.Retry.Mode == "" {
		cfg.Retry.Mode = def.Mode
	}
	if cfg.Retry.Initial == 0 {
		cfg.Retry.Initial = def.Initial
	}
	if cfg.Retry.Max == 0 {
		cfg.Retry.Max = def.Max
	}
	if cfg.Retry.MaxRetries == nil {
		n := def.MaxRetries
		cfg.Retry.MaxRetries = &n
	}

	if cfg.Scan.Concurrency == 0 {
		cfg.Scan.Concurrency = 4
	}

	for _, f := range cfg.Forges {
		if f == nil {
			continue
		}
		f.Type = NormalizeForgeType(string(f.Type))
		if f.Auth != nil && f.Auth.Type == "" {
			f.Auth.Type = AuthTypeToken
		}
	}
}
