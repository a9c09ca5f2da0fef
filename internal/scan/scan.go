package scan

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/docviewer/internal/docviewer"
	"git.home.luguber.info/inful/docviewer/internal/logfields"
	"git.home.luguber.info/inful/docviewer/internal/metrics"
	"git.home.luguber.info/inful/docviewer/internal/repository"
)

// DefaultConcurrency bounds parallel resolutions when none is configured.
const DefaultConcurrency = 4

// Explainer resolves a single repository. *docviewer.Resolver satisfies it.
type Explainer interface {
	Explain(ctx context.Context, ref repository.Ref) (docviewer.Resolution, error)
}

// Target is one repository to resolve.
type Target struct {
	Forge    string
	Ref      repository.Ref
	Resolver Explainer
}

// Result is the resolution of one target.
type Result struct {
	Forge   string            `json:"forge,omitempty"`
	Ref     repository.Ref    `json:"repository"`
	Outcome docviewer.Outcome `json:"outcome"`
	File    string            `json:"file,omitempty"`
	Link    *docviewer.Link   `json:"documentationViewer,omitempty"`
	Reason  string            `json:"reason,omitempty"`
}

// Skipped is a listed repository left out by a forge's include/exclude globs.
type Skipped struct {
	Forge  string         `json:"forge"`
	Ref    repository.Ref `json:"repository"`
	Reason string         `json:"reason"`
}

// Report collects the results of a scan. Results are sorted by forge and
// repository. Errors holds listing failures keyed by forge name.
type Report struct {
	Results  []Result          `json:"results"`
	Skipped  []Skipped         `json:"skipped,omitempty"`
	Errors   map[string]string `json:"errors,omitempty"`
	Duration time.Duration     `json:"duration"`
}

// Counts returns the number of results per outcome.
func (r *Report) Counts() map[docviewer.Outcome]int {
	counts := make(map[docviewer.Outcome]int)
	for _, res := range r.Results {
		counts[res.Outcome]++
	}
	return counts
}

// Scanner runs resolutions with bounded concurrency.
type Scanner struct {
	concurrency int
	logger      *slog.Logger
	recorder    metrics.Recorder
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithConcurrency caps the repositories resolved at once. Values below one are ignored.
func WithConcurrency(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLogger sets the logger for scan progress.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(rec metrics.Recorder) Option {
	return func(s *Scanner) {
		if rec != nil {
			s.recorder = rec
		}
	}
}

// NewScanner returns a Scanner resolving DefaultConcurrency repositories at once.
func NewScanner(opts ...Option) *Scanner {
	s := &Scanner{
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
		recorder:    metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Concurrency returns the maximum number of parallel resolutions.
func (s *Scanner) Concurrency() int { return s.concurrency }

// Resolve resolves every target. A failing repository becomes a result with
// OutcomeError and does not stop the others; only cancellation of ctx aborts
// the scan.
func (s *Scanner) Resolve(ctx context.Context, targets []Target) (*Report, error) {
	start := time.Now()
	s.recorder.SetScanConcurrency(s.concurrency)

	results := make([]Result, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, t := range targets {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := t.Resolver.Explain(gctx, t.Ref)
			if err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			results[i] = Result{
				Forge:   t.Forge,
				Ref:     t.Ref,
				Outcome: res.Outcome,
				File:    res.File,
				Link:    res.Link,
			}
			if !res.Found() {
				results[i].Reason = res.Reason()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sortResults(results)
	report := &Report{Results: results, Duration: time.Since(start)}
	s.logger.InfoContext(ctx, "Scan completed",
		slog.Int("repositories", len(results)),
		slog.Int("found", report.Counts()[docviewer.OutcomeFound]),
		logfields.DurationMS(float64(report.Duration.Microseconds())/1000))
	return report, nil
}

// ResolveRefs resolves refs through a single resolver.
func (s *Scanner) ResolveRefs(ctx context.Context, resolver Explainer, refs []repository.Ref) (*Report, error) {
	targets := make([]Target, 0, len(refs))
	for _, ref := range refs {
		targets = append(targets, Target{Ref: ref, Resolver: resolver})
	}
	return s.Resolve(ctx, targets)
}

func sortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Forge != results[j].Forge {
			return results[i].Forge < results[j].Forge
		}
		return results[i].Ref.String() < results[j].Ref.String()
	})
}

// reportBuilder guards the parts of a Report filled in by concurrent listings.
type reportBuilder struct {
	mu      sync.Mutex
	targets []Target
	skipped []Skipped
	errors  map[string]string
}

func (b *reportBuilder) add(targets []Target, skipped []Skipped) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.targets = append(b.targets, targets...)
	b.skipped = append(b.skipped, skipped...)
}

func (b *reportBuilder) fail(forge string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.errors == nil {
		b.errors = make(map[string]string)
	}
	b.errors[forge] = err.Error()
}
