package git

import (
	"strings"

	"git.home.luguber.info/inful/docviewer/internal/foundation/errors"
)

// ClassifyGitError translates go-git errors into ClassifiedErrors. op names the
// operation that failed and path the repository it ran against.
func ClassifyGitError(err error, op string, path string) error {
	if err == nil {
		return nil
	}

	// Already classified
	if _, ok := errors.AsClassified(err); ok {
		return err
	}

	l := strings.ToLower(err.Error())

	builder := errors.GitError("git operation failed").
		WithCause(err).
		WithContext("op", op).
		WithContext("path", path)

	switch {
	case strings.Contains(l, "object not found") || strings.Contains(l, "packfile") || strings.Contains(l, "malformed"):
		builder.WithContext("corrupt", true)
	case strings.Contains(l, "repository does not exist") || strings.Contains(l, "not found") || strings.Contains(l, "no such file"):
		builder.WithCategory(errors.CategoryNotFound)
	case strings.Contains(l, "permission denied"):
		builder.WithCategory(errors.CategoryFileSystem)
	}

	return builder.Build()
}
