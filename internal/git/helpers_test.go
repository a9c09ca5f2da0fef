package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// commitFiles writes files into the working tree of repo and commits them.
func commitFiles(t *testing.T, repo *git.Repository, repoPath string, files map[string]string) plumbing.Hash {
	t.Helper()
	wt, err := repo.Worktree()
	require.NoError(t, err)

	for name, content := range files {
		full := filepath.Join(repoPath, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o600))
		_, err := wt.Add(name)
		require.NoError(t, err)
	}

	h, err := wt.Commit("update", &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return h
}

// initRepo creates a non-bare repository at path with one commit holding files.
func initRepo(t *testing.T, path string, files map[string]string) (*git.Repository, string) {
	t.Helper()
	repo, err := git.PlainInit(path, false)
	require.NoError(t, err)
	commitFiles(t, repo, path, files)

	head, err := repo.Head()
	require.NoError(t, err)
	return repo, head.Name().Short()
}

func addBranch(t *testing.T, repo *git.Repository, name string, h plumbing.Hash) {
	t.Helper()
	require.NoError(t, repo.Storer.SetReference(plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), h)))
}

func pointHead(t *testing.T, repo *git.Repository, branch string) {
	t.Helper()
	require.NoError(t, repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(branch))))
}
