package git

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"

	"git.home.luguber.info/inful/docviewer/internal/foundation/errors"
	"git.home.luguber.info/inful/docviewer/internal/logfields"
	"git.home.luguber.info/inful/docviewer/internal/repository"
)

// Opener maps repository refs to directories below a root:
// <root>/<namespace>/<name>.git (bare) is tried before <root>/<namespace>/<name>.
type Opener struct {
	root string
}

// NewOpener creates an Opener serving repositories below root.
func NewOpener(root string) *Opener { return &Opener{root: root} }

// Root returns the directory repositories are looked up in.
func (o *Opener) Root() string { return o.root }

// Open implements repository.Opener.
func (o *Opener) Open(ctx context.Context, ref repository.Ref) (repository.Service, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir, err := o.locate(ref)
	if err != nil {
		return nil, err
	}
	slog.DebugContext(ctx, "Opening repository", logfields.Repository(ref.String()), logfields.Path(dir))
	return OpenPath(dir)
}

// List walks the root and returns every repository found at namespace/name depth.
func (o *Opener) List() ([]repository.Ref, error) {
	namespaces, err := os.ReadDir(o.root)
	if err != nil {
		return nil, errors.FileSystemError("cannot read repository root").
			WithCause(err).
			WithContext("path", o.root).
			Build()
	}

	var refs []repository.Ref
	for _, ns := range namespaces {
		if !ns.IsDir() || strings.HasPrefix(ns.Name(), ".") {
			continue
		}
		repos, err := os.ReadDir(filepath.Join(o.root, ns.Name()))
		if err != nil {
			return nil, errors.FileSystemError("cannot read namespace directory").
				WithCause(err).
				WithContext("path", filepath.Join(o.root, ns.Name())).
				Build()
		}
		for _, r := range repos {
			if !r.IsDir() || strings.HasPrefix(r.Name(), ".") {
				continue
			}
			refs = append(refs, repository.Ref{Namespace: ns.Name(), Name: strings.TrimSuffix(r.Name(), ".git")})
		}
	}
	return refs, nil
}

func (o *Opener) locate(ref repository.Ref) (string, error) {
	if !safeSegment(ref.Namespace) || !safeSegment(ref.Name) {
		return "", errors.ValidationError("invalid repository reference").
			WithContext("repository", ref.String()).
			Build()
	}

	base := filepath.Join(o.root, filepath.FromSlash(ref.Namespace), ref.Name)
	for _, candidate := range []string{base + ".git", base} {
		if fi, err := os.Stat(candidate); err == nil && fi.IsDir() {
			return candidate, nil
		}
	}
	return "", errors.NotFoundError("repository not found").
		WithContext("repository", ref.String()).
		Build()
}

// safeSegment accepts names that cannot leave the root when joined to it.
// Namespaces may contain slashes (nested groups).
func safeSegment(s string) bool {
	if s == "" || strings.ContainsAny(s, `\:`) {
		return false
	}
	for _, part := range strings.Split(s, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}

// OpenPath opens the repository at path, which may be bare or have a working tree.
func OpenPath(path string) (*Service, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, ClassifyGitError(err, "open", path)
	}
	return &Service{repo: repo, path: path}, nil
}
