package forge

import (
	"context"

	"git.home.luguber.info/inful/docviewer/internal/foundation/errors"
	"git.home.luguber.info/inful/docviewer/internal/repository"
)

// Opener exposes repositories of one forge as repository.Service handles.
type Opener struct {
	client Client
}

// NewOpener wraps client as a repository.Opener.
func NewOpener(client Client) *Opener { return &Opener{client: client} }

// Open fetches repository metadata; the default branch it reports is the
// revision every later call of the service reads.
func (o *Opener) Open(ctx context.Context, ref repository.Ref) (repository.Service, error) {
	if ref.Namespace == "" || ref.Name == "" {
		return nil, errors.ValidationError("repository reference needs a namespace and a name").
			WithContext("repository", ref.String()).
			Build()
	}
	repo, err := o.client.GetRepository(ctx, ref.Namespace, ref.Name)
	if err != nil {
		return nil, err
	}
	return &service{client: o.client, repo: repo}, nil
}

// service binds a Client to one repository.
type service struct {
	client Client
	repo   *Repository
}

func (s *service) ListRootEntries(ctx context.Context) ([]repository.Entry, error) {
	return s.client.ListRootEntries(ctx, s.repo)
}

func (s *service) ReadFile(ctx context.Context, path string) ([]byte, error) {
	return s.client.ReadFile(ctx, s.repo, path)
}

func (s *service) ListBranches(ctx context.Context) ([]repository.Branch, error) {
	return s.client.ListBranches(ctx, s.repo)
}

// Close is a no-op; forge services hold no connections of their own.
func (s *service) Close() error { return nil }
