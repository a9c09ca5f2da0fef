package docviewer

import (
	"path"
	"strings"

	"git.home.luguber.info/inful/docviewer/internal/repository"
)

// Recognized configuration filenames. Matching is exact and case sensitive.
const (
	ConfigFileYAML = "documentation.yaml"
	ConfigFileYML  = "documentation.yml"
)

// Location is the result of looking for the configuration file in a root listing.
// Filename is set only when Outcome is OutcomeFound. IgnoredDirs lists root
// directories that carry a configuration filename.
type Location struct {
	Outcome     Outcome
	Filename    string
	IgnoredDirs []string
}

// Found reports whether exactly one configuration file was located.
func (l Location) Found() bool { return l.Outcome == OutcomeFound }

// Extension returns the file extension without the dot ("yaml" or "yml").
func (l Location) Extension() string {
	return strings.TrimPrefix(path.Ext(l.Filename), ".")
}

// Locate finds the configuration file among the root entries of a repository.
// Directories carrying one of the names are ignored.
func Locate(entries []repository.Entry) Location {
	var hasYAML, hasYML bool
	var dirs []string
	for _, e := range entries {
		if e.Dir {
			if e.Name == ConfigFileYAML || e.Name == ConfigFileYML {
				dirs = append(dirs, e.Name)
			}
			continue
		}
		switch e.Name {
		case ConfigFileYAML:
			hasYAML = true
		case ConfigFileYML:
			hasYML = true
		}
	}

	loc := Location{Outcome: OutcomeNoConfig, IgnoredDirs: dirs}
	switch {
	case hasYAML && hasYML:
		loc.Outcome = OutcomeAmbiguousConfig
	case hasYAML:
		loc.Outcome, loc.Filename = OutcomeFound, ConfigFileYAML
	case hasYML:
		loc.Outcome, loc.Filename = OutcomeFound, ConfigFileYML
	}
	return loc
}
