package docviewer

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBasePath    = "docs"
	DefaultLandingPage = "home.md"

	keyBasePath    = "basePath"
	keyLandingPage = "landingPage"
)

// ErrMalformedSettings is wrapped by every ParseSettings error.
var ErrMalformedSettings = errors.New("malformed documentation settings")

// Settings is the decoded content of the documentation configuration file.
type Settings struct {
	BasePath    string `yaml:"basePath" json:"basePath"`
	LandingPage string `yaml:"landingPage" json:"landingPage"`
}

// DefaultSettings returns the settings used for keys the file does not set.
func DefaultSettings() Settings {
	return Settings{BasePath: DefaultBasePath, LandingPage: DefaultLandingPage}
}

// ParseSettings decodes configuration content. Only basePath and landingPage are
// accepted; unknown or duplicate keys, non-mapping documents and non-scalar values
// are rejected, as is content holding more than one YAML document. Empty or
// comment-only content yields DefaultSettings, and a key with an explicit null
// value keeps its default.
func ParseSettings(content []byte) (Settings, error) {
	settings := DefaultSettings()

	dec := yaml.NewDecoder(bytes.NewReader(content))
	var doc yaml.Node
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return settings, nil
		}
		return Settings{}, fmt.Errorf("%w: %w", ErrMalformedSettings, err)
	}
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err != nil {
			return Settings{}, fmt.Errorf("%w: %w", ErrMalformedSettings, err)
		}
		return Settings{}, malformed(&extra, "expected a single document")
	}
	if doc.Kind == 0 || (doc.Kind == yaml.DocumentNode && len(doc.Content) == 0) {
		return settings, nil
	}

	root := &doc
	if doc.Kind == yaml.DocumentNode {
		root = doc.Content[0]
	}
	if isNull(root) {
		return settings, nil
	}
	if root.Kind != yaml.MappingNode {
		return Settings{}, malformed(root, "expected a mapping of settings")
	}

	seen := make(map[string]bool, 2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			return Settings{}, malformed(key, "keys must be strings")
		}
		if seen[key.Value] {
			return Settings{}, malformed(key, fmt.Sprintf("duplicate key %q", key.Value))
		}
		seen[key.Value] = true

		var target *string
		switch key.Value {
		case keyBasePath:
			target = &settings.BasePath
		case keyLandingPage:
			target = &settings.LandingPage
		default:
			return Settings{}, malformed(key, fmt.Sprintf("unknown key %q", key.Value))
		}

		if value.Kind == yaml.AliasNode && value.Alias != nil {
			value = value.Alias
		}
		if isNull(value) {
			continue
		}
		if value.Kind != yaml.ScalarNode {
			return Settings{}, malformed(value, fmt.Sprintf("value of %q must be a string", key.Value))
		}
		*target = value.Value
	}

	return settings, nil
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

func malformed(n *yaml.Node, msg string) error {
	return fmt.Errorf("%w: line %d: %s", ErrMalformedSettings, n.Line, msg)
}
