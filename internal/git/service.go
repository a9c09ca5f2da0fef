package git

import (
	"context"
	stderrors "errors"
	"io"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"git.home.luguber.info/inful/docviewer/internal/foundation/errors"
	"git.home.luguber.info/inful/docviewer/internal/repository"
)

// Service is a repository.Service over one go-git repository. It is meant to be
// used by a single resolution and is not safe for concurrent use.
type Service struct {
	repo *git.Repository
	path string

	tree     *object.Tree
	treeDone bool
}

var _ repository.Service = (*Service)(nil)

// headTree returns the tree of the commit HEAD points to, or nil when HEAD is unborn.
func (s *Service) headTree() (*object.Tree, error) {
	if s.treeDone {
		return s.tree, nil
	}

	head, err := s.repo.Head()
	if stderrors.Is(err, plumbing.ErrReferenceNotFound) {
		s.treeDone = true
		return nil, nil
	}
	if err != nil {
		return nil, ClassifyGitError(err, "head", s.path)
	}
	commit, err := s.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, ClassifyGitError(err, "commit", s.path)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, ClassifyGitError(err, "tree", s.path)
	}

	s.tree, s.treeDone = tree, true
	return tree, nil
}

func (s *Service) ListRootEntries(ctx context.Context) ([]repository.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tree, err := s.headTree()
	if err != nil || tree == nil {
		return nil, err
	}

	entries := make([]repository.Entry, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		entries = append(entries, repository.Entry{Name: e.Name, Dir: !e.Mode.IsFile()})
	}
	return entries, nil
}

func (s *Service) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tree, err := s.headTree()
	if err != nil {
		return nil, err
	}
	if tree == nil {
		return nil, errors.NotFoundError("file not found in empty repository").
			WithContext("file", path).
			Build()
	}

	f, err := tree.File(path)
	if stderrors.Is(err, object.ErrFileNotFound) {
		return nil, errors.NotFoundError("file not found").
			WithContext("file", path).
			WithContext("path", s.path).
			Build()
	}
	if err != nil {
		return nil, ClassifyGitError(err, "read", s.path)
	}

	r, err := f.Reader()
	if err != nil {
		return nil, ClassifyGitError(err, "read", s.path)
	}
	defer func() { _ = r.Close() }()

	content, err := io.ReadAll(r)
	if err != nil {
		return nil, ClassifyGitError(err, "read", s.path)
	}
	return content, nil
}

func (s *Service) ListBranches(ctx context.Context) ([]repository.Branch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var defaultRef plumbing.ReferenceName
	head, err := s.repo.Storer.Reference(plumbing.HEAD)
	switch {
	case err == nil && head.Type() == plumbing.SymbolicReference:
		defaultRef = head.Target()
	case err != nil && !stderrors.Is(err, plumbing.ErrReferenceNotFound):
		return nil, ClassifyGitError(err, "head", s.path)
	}

	iter, err := s.repo.Branches()
	if err != nil {
		return nil, ClassifyGitError(err, "branches", s.path)
	}
	defer iter.Close()

	var branches []repository.Branch
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		branches = append(branches, repository.Branch{
			Name:    ref.Name().Short(),
			Default: ref.Name() == defaultRef,
		})
		return nil
	})
	if err != nil {
		return nil, ClassifyGitError(err, "branches", s.path)
	}
	return branches, nil
}

// Close releases file handles held by the object storage.
func (s *Service) Close() error {
	if c, ok := s.repo.Storer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
