package docviewer

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSettings is wrapped by every ValidateSettings error.
var ErrInvalidSettings = errors.New("invalid documentation settings")

const markdownSuffix = ".md"

// ValidateSettings checks decoded settings and returns the first violation found.
// basePath is checked before landingPage.
func ValidateSettings(s Settings) error {
	switch {
	case s.BasePath == "":
		return fmt.Errorf("%w: basePath is empty", ErrInvalidSettings)
	case !IsPathValid(s.BasePath):
		return fmt.Errorf("%w: basePath %q is not a valid path", ErrInvalidSettings, s.BasePath)
	case s.LandingPage == "":
		return fmt.Errorf("%w: landingPage is empty", ErrInvalidSettings)
	case !IsFilenameValid(s.LandingPage):
		return fmt.Errorf("%w: landingPage %q is not a valid filename", ErrInvalidSettings, s.LandingPage)
	case !strings.HasSuffix(s.LandingPage, markdownSuffix):
		return fmt.Errorf("%w: landingPage %q must end with %s", ErrInvalidSettings, s.LandingPage, markdownSuffix)
	}
	return nil
}

// IsPathValid reports whether p is a safe repository-relative path. A leading
// and a trailing slash are tolerated; empty segments, "." and ".." segments,
// backslashes, colons and control characters are not.
func IsPathValid(p string) bool {
	if p == "" || hasForbiddenRune(p) || strings.Contains(p, "//") {
		return false
	}
	trimmed := strings.TrimSuffix(strings.TrimPrefix(p, "/"), "/")
	if trimmed == "" {
		return false
	}
	for _, segment := range strings.Split(trimmed, "/") {
		if segment == "." || segment == ".." {
			return false
		}
	}
	return true
}

// IsFilenameValid reports whether name is a single safe path segment.
func IsFilenameValid(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !hasForbiddenRune(name) && !strings.Contains(name, "/")
}

func hasForbiddenRune(s string) bool {
	for _, r := range s {
		if r == '\\' || r == ':' || r < 0x20 || r == 0x7f {
			return true
		}
	}
	return false
}
