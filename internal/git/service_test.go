package git

import (
	"context"
	"path/filepath"
	"sort"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docviewer/internal/foundation/errors"
	"git.home.luguber.info/inful/docviewer/internal/repository"
)

func TestServiceListsHeadTree(t *testing.T) {
	dir := t.TempDir()
	initRepo(t, dir, map[string]string{
		"README.md":          "# readme",
		"documentation.yaml": "basePath: manual\n",
		"manual/home.md":     "# home",
	})

	svc, err := OpenPath(dir)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	entries, err := svc.ListRootEntries(context.Background())
	require.NoError(t, err)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	assert.Equal(t, []repository.Entry{
		{Name: "README.md"},
		{Name: "documentation.yaml"},
		{Name: "manual", Dir: true},
	}, entries)

	content, err := svc.ReadFile(context.Background(), "documentation.yaml")
	require.NoError(t, err)
	assert.Equal(t, "basePath: manual\n", string(content))
}

func TestServiceReadMissingFile(t *testing.T) {
	dir := t.TempDir()
	initRepo(t, dir, map[string]string{"README.md": "x"})

	svc, err := OpenPath(dir)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	_, err = svc.ReadFile(context.Background(), "documentation.yml")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func TestServiceBranches(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	h := commitFiles(t, repo, dir, map[string]string{"a.txt": "a"})
	head, err := repo.Head()
	require.NoError(t, err)
	addBranch(t, repo, "develop", h)

	svc, err := OpenPath(dir)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	branches, err := svc.ListBranches(context.Background())
	require.NoError(t, err)
	sort.Slice(branches, func(i, j int) bool { return branches[i].Name < branches[j].Name })

	want := []repository.Branch{{Name: "develop"}, {Name: head.Name().Short(), Default: true}}
	sort.Slice(want, func(i, j int) bool { return want[i].Name < want[j].Name })
	assert.Equal(t, want, branches)
}

func TestServiceFollowsHead(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	first := commitFiles(t, repo, dir, map[string]string{"README.md": "x"})
	addBranch(t, repo, "develop", first)
	commitFiles(t, repo, dir, map[string]string{"documentation.yaml": ""})
	pointHead(t, repo, "develop")

	svc, err := OpenPath(dir)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	entries, err := svc.ListRootEntries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []repository.Entry{{Name: "README.md"}}, entries)

	branches, err := svc.ListBranches(context.Background())
	require.NoError(t, err)
	for _, b := range branches {
		assert.Equal(t, b.Name == "develop", b.Default, b.Name)
	}
}

func TestServiceDanglingHead(t *testing.T) {
	dir := t.TempDir()
	repo, _ := initRepo(t, dir, map[string]string{"documentation.yaml": ""})

	head, err := repo.Head()
	require.NoError(t, err)
	require.NoError(t, repo.Storer.RemoveReference(head.Name()))
	pointHead(t, repo, "develop")

	svc, err := OpenPath(dir)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	entries, err := svc.ListRootEntries(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries, "unborn HEAD lists nothing")

	branches, err := svc.ListBranches(context.Background())
	require.NoError(t, err)
	assert.Empty(t, branches)
}

func TestServiceEmptyRepository(t *testing.T) {
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	svc, err := OpenPath(dir)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	entries, err := svc.ListRootEntries(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = svc.ReadFile(context.Background(), "documentation.yaml")
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func TestServiceHonoursCancelledContext(t *testing.T) {
	dir := t.TempDir()
	initRepo(t, dir, map[string]string{"a.txt": "a"})

	svc, err := OpenPath(dir)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.ListRootEntries(ctx)
	require.ErrorIs(t, err, context.Canceled)
	_, err = svc.ListBranches(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestOpenPathNotARepository(t *testing.T) {
	_, err := OpenPath(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}
