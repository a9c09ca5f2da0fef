package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// run parses args and executes the selected command, returning stdout,
// stderr and the exit code.
func run(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cli := &CLI{}
	g := &Global{Stdout: &stdout, Stderr: &stderr}

	parser, err := NewParser(cli, g)
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	require.NoError(t, err)

	code := Execute(kctx, cli, g)
	return stdout.String(), stderr.String(), code
}

// initRepo creates a non-bare repository at path with one commit holding files.
func initRepo(t *testing.T, path string, files map[string]string) {
	t.Helper()
	repo, err := git.PlainInit(path, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(path, name), []byte(content), 0o600))
		_, err := wt.Add(name)
		require.NoError(t, err)
	}
	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()},
	})
	require.NoError(t, err)
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "docviewer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
