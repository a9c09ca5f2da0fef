package config

import "git.home.luguber.info/inful/docviewer/internal/foundation"

// ForgeType enumerates supported forge providers.
type ForgeType string

const (
	ForgeGitHub  ForgeType = "github"
	ForgeGitLab  ForgeType = "gitlab"
	ForgeForgejo ForgeType = "forgejo"
)

var forgeTypes = foundation.NewNormalizer(map[string]ForgeType{
	"github":  ForgeGitHub,
	"gitlab":  ForgeGitLab,
	"forgejo": ForgeForgejo,
	"gitea":   ForgeForgejo,
}, "")

// NormalizeForgeType canonicalizes a forge type string (case-insensitive) or returns empty if unknown.
func NormalizeForgeType(raw string) ForgeType {
	return forgeTypes.Normalize(raw)
}

// AuthType enumerates forge authentication methods.
type AuthType string

const (
	AuthTypeToken AuthType = "token"
	AuthTypeNone  AuthType = "none"
)

// ForgeConfig configures one forge instance.
type ForgeConfig struct {
	Name    string      `yaml:"name"`
	Type    ForgeType   `yaml:"type"`
	APIURL  string      `yaml:"api_url,omitempty"`
	BaseURL string      `yaml:"base_url,omitempty"`
	Auth    *AuthConfig `yaml:"auth,omitempty"`
	// Owners are the organizations, groups or users scanned by default.
	Owners []string `yaml:"owners,omitempty"`
	// Include and Exclude filter scanned repositories by glob on namespace/name or name.
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
}

type AuthConfig struct {
	Type  AuthType `yaml:"type"`
	Token string   `yaml:"token,omitempty"`
}

// Token returns the configured token, or "" for anonymous access.
func (f *ForgeConfig) Token() string {
	if f == nil || f.Auth == nil || f.Auth.Type != AuthTypeToken {
		return ""
	}
	return f.Auth.Token
}

// Forge returns the forge configured under name, or nil.
func (c *Config) Forge(name string) *ForgeConfig {
	for _, f := range c.Forges {
		if f != nil && f.Name == name {
			return f
		}
	}
	return nil
}
