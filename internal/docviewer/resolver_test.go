package docviewer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/docviewer/internal/foundation/errors"
	"git.home.luguber.info/inful/docviewer/internal/logfields"
	"git.home.luguber.info/inful/docviewer/internal/repository"
)

var testRef = repository.Ref{Namespace: "hitchhiker", Name: "heart-of-gold"}

type countingRecorder struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (c *countingRecorder) IncResolution(outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.outcomes == nil {
		c.outcomes = map[string]int{}
	}
	c.outcomes[outcome]++
}
func (c *countingRecorder) ObserveResolutionDuration(string, time.Duration) {}
func (c *countingRecorder) IncForgeRequest(string, string)                  {}
func (c *countingRecorder) IncForgeRetry(string)                            {}
func (c *countingRecorder) SetScanConcurrency(int)                          {}

func newTestResolver(repo *fakeRepo) (*Resolver, *recordingHandler) {
	h := newRecordingHandler()
	return NewResolver(openerFor(repo), WithLogger(slog.New(h))), h
}

func TestResolveFound(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		want    Link
		wantRes string
	}{
		{
			name:  "defaults from empty yaml",
			files: map[string]string{"documentation.yaml": ""},
			want:  Link{BranchName: "main", BasePath: "docs", LandingPage: "home.md"},
		},
		{
			name:  "base path from yml",
			files: map[string]string{"documentation.yml": "basePath: /d\n", "README.md": "# hi"},
			want:  Link{BranchName: "main", BasePath: "/d", LandingPage: "home.md"},
		},
		{
			name:  "both keys",
			files: map[string]string{"documentation.yaml": "basePath: manual\nlandingPage: index.md\n"},
			want:  Link{BranchName: "main", BasePath: "manual", LandingPage: "index.md"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepo{files: tt.files, branches: mainBranches()}
			r, _ := newTestResolver(repo)

			link, ok, err := r.Resolve(context.Background(), testRef)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tt.want, link)
			assert.Equal(t, 1, repo.closeCount())
		})
	}
}

func TestResolveLogsIgnoredConfigDirectory(t *testing.T) {
	repo := &fakeRepo{
		files:    map[string]string{"documentation.yml": "basePath: manual\n"},
		dirs:     []string{"documentation.yaml"},
		branches: mainBranches(),
	}
	r, h := newTestResolver(repo)

	link, ok, err := r.Resolve(context.Background(), testRef)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Link{BranchName: "main", BasePath: "manual", LandingPage: "home.md"}, link)

	var ignored []slog.Record
	for _, rec := range h.atLevel(slog.LevelDebug) {
		if rec.Message == "Ignoring directory named like a documentation configuration file" {
			ignored = append(ignored, rec)
		}
	}
	require.Len(t, ignored, 1)
	path, found := attrValue(ignored[0], "path")
	require.True(t, found)
	assert.Equal(t, "documentation.yaml", path)
}

func TestResolveAbsent(t *testing.T) {
	tests := []struct {
		name       string
		repo       *fakeRepo
		outcome    Outcome
		warn       bool
		readsFile  bool
		branchList bool
	}{
		{
			name:    "no config",
			repo:    &fakeRepo{files: map[string]string{"README.md": ""}, branches: mainBranches()},
			outcome: OutcomeNoConfig,
		},
		{
			name:    "ambiguous config",
			repo:    &fakeRepo{files: map[string]string{"documentation.yaml": "", "documentation.yml": ""}, branches: mainBranches()},
			outcome: OutcomeAmbiguousConfig,
			warn:    true,
		},
		{
			name:      "malformed config",
			repo:      &fakeRepo{files: map[string]string{"documentation.yml": "{'prop':'definitely not yaml'}"}, branches: mainBranches()},
			outcome:   OutcomeMalformedConfig,
			warn:      true,
			readsFile: true,
		},
		{
			name:      "config with a second document",
			repo:      &fakeRepo{files: map[string]string{"documentation.yaml": "basePath: /docs\nlandingPage: home.md\n---\ninvalidProp: 42\n"}, branches: mainBranches()},
			outcome:   OutcomeMalformedConfig,
			warn:      true,
			readsFile: true,
		},
		{
			name:      "invalid base path",
			repo:      &fakeRepo{files: map[string]string{"documentation.yaml": "basePath: /../docs\n"}, branches: mainBranches()},
			outcome:   OutcomeInvalidSettings,
			readsFile: true,
		},
		{
			name:      "invalid landing page",
			repo:      &fakeRepo{files: map[string]string{"documentation.yaml": "landingPage: home.txt\n"}, branches: mainBranches()},
			outcome:   OutcomeInvalidSettings,
			readsFile: true,
		},
		{
			name:       "no default branch",
			repo:       &fakeRepo{files: map[string]string{"documentation.yaml": ""}, branches: []repository.Branch{{Name: "develop"}}},
			outcome:    OutcomeNoDefaultBranch,
			readsFile:  true,
			branchList: true,
		},
		{
			name:       "no branches at all",
			repo:       &fakeRepo{files: map[string]string{"documentation.yaml": ""}},
			outcome:    OutcomeNoDefaultBranch,
			readsFile:  true,
			branchList: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, h := newTestResolver(tt.repo)

			link, ok, err := r.Resolve(context.Background(), testRef)
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Equal(t, Link{}, link)
			assert.Equal(t, 1, tt.repo.closeCount(), "service must be closed exactly once")

			res, err := r.Explain(context.Background(), testRef)
			require.NoError(t, err)
			assert.Equal(t, tt.outcome, res.Outcome)
			assert.Nil(t, res.Link)
			assert.False(t, res.Found())
			assert.NotEmpty(t, res.Reason())

			warnings := h.atLevel(slog.LevelWarn)
			if tt.warn {
				assert.Len(t, warnings, 2, "one warning per resolution")
			} else {
				assert.Empty(t, warnings)
			}
			assert.Equal(t, tt.readsFile, len(tt.repo.reads) > 0)
			assert.Equal(t, tt.branchList, tt.repo.branchCalls > 0)
		})
	}
}

func TestResolveExplainCarriesReason(t *testing.T) {
	repo := &fakeRepo{files: map[string]string{"documentation.yaml": "basePath: //d\n"}, branches: mainBranches()}
	r, h := newTestResolver(repo)

	res, err := r.Explain(context.Background(), testRef)
	require.NoError(t, err)
	assert.Equal(t, OutcomeInvalidSettings, res.Outcome)
	assert.Equal(t, ConfigFileYAML, res.File)
	require.ErrorIs(t, res.Err, ErrInvalidSettings)
	assert.Contains(t, res.Reason(), `"//d"`)
	assert.Equal(t, testRef, res.Ref)
	assert.NotEmpty(t, res.ID)

	debug := h.atLevel(slog.LevelDebug)
	require.Len(t, debug, 1)
	reason, ok := attrValue(debug[0], logfields.KeyReason)
	require.True(t, ok)
	assert.Contains(t, reason, "basePath")
	repoAttr, _ := attrValue(debug[0], logfields.KeyRepo)
	assert.Equal(t, "hitchhiker/heart-of-gold", repoAttr)
}

func TestResolveMalformedLogsFile(t *testing.T) {
	repo := &fakeRepo{files: map[string]string{"documentation.yml": "basePath: a\nbasePath: b\n"}, branches: mainBranches()}
	r, h := newTestResolver(repo)

	_, ok, err := r.Resolve(context.Background(), testRef)
	require.NoError(t, err)
	assert.False(t, ok)

	warnings := h.atLevel(slog.LevelWarn)
	require.Len(t, warnings, 1)
	file, _ := attrValue(warnings[0], logfields.KeyFile)
	assert.Equal(t, ConfigFileYML, file)
	outcome, _ := attrValue(warnings[0], logfields.KeyOutcome)
	assert.Equal(t, "malformed_config", outcome)
}

func TestResolveInfrastructureErrors(t *testing.T) {
	boom := ferrors.GitError("object database unavailable").Build()

	tests := []struct {
		name string
		repo *fakeRepo
	}{
		{name: "listing fails", repo: &fakeRepo{listErr: boom}},
		{name: "read fails", repo: &fakeRepo{files: map[string]string{"documentation.yaml": ""}, readErr: boom}},
		{name: "branches fail", repo: &fakeRepo{files: map[string]string{"documentation.yaml": ""}, branchErr: boom}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, h := newTestResolver(tt.repo)

			_, ok, err := r.Resolve(context.Background(), testRef)
			require.Error(t, err)
			assert.False(t, ok)
			assert.ErrorIs(t, err, boom)
			assert.True(t, ferrors.HasCategory(err, ferrors.CategoryGit), "classification survives wrapping")
			assert.Contains(t, err.Error(), testRef.String())
			assert.Equal(t, 1, tt.repo.closeCount())
			assert.Len(t, h.atLevel(slog.LevelWarn), 1)
		})
	}
}

func TestResolveOpenFailureDoesNotClose(t *testing.T) {
	openErr := errors.New("no such repository")
	r := NewResolver(repository.OpenerFunc(func(context.Context, repository.Ref) (repository.Service, error) {
		return nil, openErr
	}), WithLogger(slog.New(newRecordingHandler())))

	res, err := r.Explain(context.Background(), testRef)
	require.ErrorIs(t, err, openErr)
	assert.Equal(t, OutcomeError, res.Outcome)
	assert.Nil(t, res.Link)
}

func TestResolveCloseErrorIsLoggedNotReturned(t *testing.T) {
	repo := &fakeRepo{files: map[string]string{"documentation.yaml": ""}, branches: mainBranches(), closeErr: errors.New("close failed")}
	r, h := newTestResolver(repo)

	link, ok, err := r.Resolve(context.Background(), testRef)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "main", link.BranchName)

	warnings := h.atLevel(slog.LevelWarn)
	require.Len(t, warnings, 1)
	assert.Equal(t, "Failed to close repository service", warnings[0].Message)
}

func TestResolveIsIdempotent(t *testing.T) {
	repo := &fakeRepo{files: map[string]string{"documentation.yaml": "basePath: guide\n"}, branches: mainBranches()}
	r, _ := newTestResolver(repo)

	first, ok1, err1 := r.Resolve(context.Background(), testRef)
	second, ok2, err2 := r.Resolve(context.Background(), testRef)
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, ok1, ok2)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, repo.closeCount())
}

func TestResolveConcurrent(t *testing.T) {
	repo := &fakeRepo{files: map[string]string{"documentation.yml": "landingPage: index.md\n"}, branches: mainBranches()}
	rec := &countingRecorder{}
	r := NewResolver(openerFor(repo), WithLogger(slog.New(newRecordingHandler())), WithRecorder(rec))

	const n = 16
	var wg sync.WaitGroup
	links := make([]Link, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			link, ok, err := r.Resolve(context.Background(), testRef)
			assert.NoError(t, err)
			assert.True(t, ok)
			links[i] = link
		}()
	}
	wg.Wait()

	for _, l := range links {
		assert.Equal(t, Link{BranchName: "main", BasePath: "docs", LandingPage: "index.md"}, l)
	}
	assert.Equal(t, n, repo.closeCount())
	assert.Equal(t, n, rec.outcomes["found"])
}

func TestResolveRecordsDuration(t *testing.T) {
	repo := &fakeRepo{files: map[string]string{}, branches: mainBranches()}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	clock := func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * 10 * time.Millisecond)
	}
	r := NewResolver(openerFor(repo), WithLogger(slog.New(newRecordingHandler())), WithClock(clock))

	res, err := r.Explain(context.Background(), testRef)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Millisecond, res.Duration)
}

func TestResolveScenarios(t *testing.T) {
	t.Run("landing page is returned without checking it exists", func(t *testing.T) {
		repo := &fakeRepo{
			files:    map[string]string{"documentation.yml": "basePath: /d\n"},
			dirs:     []string{"d"},
			branches: []repository.Branch{{Name: "trunk", Default: true}},
		}
		r, _ := newTestResolver(repo)

		link, ok, err := r.Resolve(context.Background(), testRef)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, Link{BranchName: "trunk", BasePath: "/d", LandingPage: "home.md"}, link)
		assert.Equal(t, []string{ConfigFileYML}, repo.reads, "only the configuration file is read")
	})

	t.Run("escaping base path is rejected silently", func(t *testing.T) {
		repo := &fakeRepo{files: map[string]string{"documentation.yaml": "basePath: /docs/../../root\n"}, branches: mainBranches()}
		r, h := newTestResolver(repo)

		_, ok, err := r.Resolve(context.Background(), testRef)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, h.atLevel(slog.LevelWarn))
	})
}
