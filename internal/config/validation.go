package config

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"git.home.luguber.info/inful/docviewer/internal/foundation/errors"
)

// Validate checks the configuration after defaults were applied and returns
// the first problem found.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateLogging,
		c.validateMetrics,
		c.validateForges,
		c.validateRetry,
		c.validateScan,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func invalid(field, format string, args ...any) error {
	return errors.ConfigError(fmt.Sprintf(format, args...)).
		WithContext("field", field).
		Build()
}

func (c *Config) validateServer() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return invalid("server.addr", "server address cannot be empty")
	}
	for field, d := range map[string]int64{
		"server.read_timeout":    int64(c.Server.ReadTimeout),
		"server.write_timeout":   int64(c.Server.WriteTimeout),
		"server.idle_timeout":    int64(c.Server.IdleTimeout),
		"server.request_timeout": int64(c.Server.RequestTimeout),
	} {
		if d < 0 {
			return invalid(field, "%s cannot be negative", field)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return invalid("logging.level", "unknown log level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case LogFormatText, LogFormatJSON:
	default:
		return invalid("logging.format", "unknown log format %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateMetrics() error {
	if !strings.HasPrefix(c.Metrics.Path, "/") || path.Clean(c.Metrics.Path) != c.Metrics.Path {
		return invalid("metrics.path", "metrics path %q must be an absolute clean URL path", c.Metrics.Path)
	}
	return nil
}

func (c *Config) validateForges() error {
	names := make(map[string]bool, len(c.Forges))
	for i, f := range c.Forges {
		field := fmt.Sprintf("forges[%d]", i)
		if f == nil {
			return invalid(field, "forge entry cannot be empty")
		}
		if f.Name == "" {
			return invalid(field+".name", "forge name cannot be empty")
		}
		if names[f.Name] {
			return invalid(field+".name", "duplicate forge name: %s", f.Name)
		}
		names[f.Name] = true

		if f.Type == "" {
			return invalid(field+".type", "forge %s has an unsupported type", f.Name)
		}
		for _, u := range []struct{ key, value string }{{"api_url", f.APIURL}, {"base_url", f.BaseURL}} {
			if u.value == "" {
				continue
			}
			parsed, err := url.Parse(u.value)
			if err != nil || parsed.Scheme == "" || parsed.Host == "" {
				return invalid(field+"."+u.key, "forge %s has an invalid %s %q", f.Name, u.key, u.value)
			}
		}
		if f.Type == ForgeForgejo && f.APIURL == "" {
			return invalid(field+".api_url", "forge %s: api_url is required for forgejo", f.Name)
		}
		if f.Auth != nil {
			switch f.Auth.Type {
			case AuthTypeToken:
				if f.Auth.Token == "" {
					return invalid(field+".auth.token", "forge %s: token authentication requires a token", f.Name)
				}
			case AuthTypeNone:
			default:
				return invalid(field+".auth.type", "forge %s: unsupported auth type %q", f.Name, f.Auth.Type)
			}
		}
	}
	return nil
}

func (c *Config) validateRetry() error {
	if err := c.Retry.Policy().Validate(); err != nil {
		return invalid("retry", "invalid retry policy: %v", err)
	}
	if !c.Retry.Mode.Valid() {
		return invalid("retry.mode", "unknown retry mode %q", c.Retry.Mode)
	}
	if c.Retry.MaxRetries != nil && *c.Retry.MaxRetries < 0 {
		return invalid("retry.max_retries", "max_retries cannot be negative")
	}
	return nil
}

func (c *Config) validateScan() error {
	if c.Scan.Concurrency < 1 {
		return invalid("scan.concurrency", "scan concurrency must be at least 1")
	}
	return nil
}
