package forge

import (
	"sort"

	"git.home.luguber.info/inful/docviewer/internal/config"
	"git.home.luguber.info/inful/docviewer/internal/foundation/errors"
)

// NewClient creates a forge client based on the configuration.
func NewClient(cfg *Config, opts ...Option) (Client, error) {
	switch cfg.Type {
	case config.ForgeGitHub:
		return NewGitHubClient(cfg, opts...)
	case config.ForgeGitLab:
		return NewGitLabClient(cfg, opts...)
	case config.ForgeForgejo:
		return NewForgejoClient(cfg, opts...)
	default:
		return nil, errors.ConfigError("unsupported forge type").
			WithContext("type", cfg.Type).
			WithContext("name", cfg.Name).
			Build()
	}
}

// Manager holds the configured forge clients by name.
type Manager struct {
	clients map[string]Client
	configs map[string]*Config
}

func NewManager() *Manager {
	return &Manager{
		clients: make(map[string]Client),
		configs: make(map[string]*Config),
	}
}

// CreateManager creates a client for every configuration.
func CreateManager(configs []*Config, opts ...Option) (*Manager, error) {
	manager := NewManager()
	for _, cfg := range configs {
		client, err := NewClient(cfg, opts...)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "failed to create forge client").
				WithContext("name", cfg.Name).
				Build()
		}
		manager.AddForge(cfg, client)
	}
	return manager, nil
}

func (m *Manager) AddForge(cfg *Config, client Client) {
	m.configs[cfg.Name] = cfg
	m.clients[cfg.Name] = client
}

// GetForge returns a forge client by name, or nil.
func (m *Manager) GetForge(name string) Client {
	return m.clients[name]
}

// GetConfig returns the configuration a client was created from, or nil.
func (m *Manager) GetConfig(name string) *Config {
	return m.configs[name]
}

// Names returns the registered forge names in sorted order.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.clients))
	for name := range m.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Opener returns a repository opener for the named forge.
func (m *Manager) Opener(name string) (*Opener, error) {
	client := m.GetForge(name)
	if client == nil {
		return nil, errors.NotFoundError("unknown forge").
			WithContext("forge", name).
			Build()
	}
	return NewOpener(client), nil
}
