package docviewer

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/docviewer/internal/repository"
)

// fakeRepo is an in-memory repository.Service.
type fakeRepo struct {
	files    map[string]string
	dirs     []string
	branches []repository.Branch

	listErr   error
	readErr   error
	branchErr error
	closeErr  error

	mu          sync.Mutex
	closed      int
	reads       []string
	branchCalls int
}

func (f *fakeRepo) ListRootEntries(context.Context) ([]repository.Entry, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	entries := make([]repository.Entry, 0, len(f.files)+len(f.dirs))
	for name := range f.files {
		entries = append(entries, repository.Entry{Name: name})
	}
	for _, d := range f.dirs {
		entries = append(entries, repository.Entry{Name: d, Dir: true})
	}
	return entries, nil
}

func (f *fakeRepo) ReadFile(_ context.Context, path string) ([]byte, error) {
	f.mu.Lock()
	f.reads = append(f.reads, path)
	f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	content, ok := f.files[path]
	if !ok {
		return nil, errors.New("file not found: " + path)
	}
	return []byte(content), nil
}

func (f *fakeRepo) ListBranches(context.Context) ([]repository.Branch, error) {
	f.mu.Lock()
	f.branchCalls++
	f.mu.Unlock()
	if f.branchErr != nil {
		return nil, f.branchErr
	}
	return f.branches, nil
}

func (f *fakeRepo) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return f.closeErr
}

func (f *fakeRepo) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func openerFor(repo *fakeRepo) repository.Opener {
	return repository.OpenerFunc(func(context.Context, repository.Ref) (repository.Service, error) {
		return repo, nil
	})
}

func mainBranches() []repository.Branch {
	return []repository.Branch{{Name: "develop"}, {Name: "main", Default: true}}
}

// recordingHandler keeps every record it handles, attributes from With included.
type recordingHandler struct {
	mu      *sync.Mutex
	records *[]slog.Record
	attrs   []slog.Attr
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{mu: &sync.Mutex{}, records: &[]slog.Record{}}
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	r = r.Clone()
	r.AddAttrs(h.attrs...)
	h.mu.Lock()
	defer h.mu.Unlock()
	*h.records = append(*h.records, r)
	return nil
}

func (h *recordingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &next
}

func (h *recordingHandler) WithGroup(string) slog.Handler { return h }

func (h *recordingHandler) all() []slog.Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]slog.Record(nil), *h.records...)
}

func (h *recordingHandler) atLevel(level slog.Level) []slog.Record {
	var out []slog.Record
	for _, r := range h.all() {
		if r.Level == level {
			out = append(out, r)
		}
	}
	return out
}

func attrValue(r slog.Record, key string) (string, bool) {
	var (
		val   string
		found bool
	)
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			val, found = a.Value.String(), true
			return false
		}
		return true
	})
	return val, found
}
