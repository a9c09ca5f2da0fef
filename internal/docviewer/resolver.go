package docviewer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docviewer/internal/logfields"
	"git.home.luguber.info/inful/docviewer/internal/metrics"
	"git.home.luguber.info/inful/docviewer/internal/repository"
)

// Link is the documentation viewer link advertised for a repository.
type Link struct {
	BranchName  string `json:"branchName"`
	BasePath    string `json:"basePath"`
	LandingPage string `json:"landingPage"`
}

// Resolution is the detailed result of one resolution. Link is set only when
// Outcome is OutcomeFound; Err carries the parse or validation failure behind
// OutcomeMalformedConfig and OutcomeInvalidSettings.
type Resolution struct {
	Ref      repository.Ref `json:"repository"`
	ID       string         `json:"resolutionId"`
	Outcome  Outcome        `json:"outcome"`
	File     string         `json:"file,omitempty"`
	Link     *Link          `json:"link,omitempty"`
	Err      error          `json:"-"`
	Duration time.Duration  `json:"-"`
}

// Found reports whether a link was produced.
func (r Resolution) Found() bool { return r.Link != nil }

// Reason returns a human readable explanation of the outcome.
func (r Resolution) Reason() string {
	if r.Err != nil {
		return r.Err.Error()
	}
	return r.Outcome.Describe()
}

// Resolver computes documentation viewer links. It holds no per-call state and
// is safe for concurrent use when its Opener is.
type Resolver struct {
	opener   repository.Opener
	logger   *slog.Logger
	recorder metrics.Recorder
	now      func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger receiving diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(rec metrics.Recorder) Option {
	return func(r *Resolver) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

// WithClock overrides the time source used for durations.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// NewResolver returns a Resolver opening repositories through opener.
func NewResolver(opener repository.Opener, opts ...Option) *Resolver {
	r := &Resolver{
		opener:   opener,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the documentation viewer link for ref. The boolean is false
// when the repository does not advertise one; err is non-nil only when the
// repository could not be accessed.
func (r *Resolver) Resolve(ctx context.Context, ref repository.Ref) (Link, bool, error) {
	res, err := r.Explain(ctx, ref)
	if err != nil || res.Link == nil {
		return Link{}, false, err
	}
	return *res.Link, true, nil
}

// Explain resolves ref like Resolve and reports how the resolution ended.
func (r *Resolver) Explain(ctx context.Context, ref repository.Ref) (Resolution, error) {
	start := r.now()
	id := uuid.NewString()
	logger := r.logger.With(logfields.Repository(ref.String()), logfields.ResolutionID(id))

	res, err := r.resolve(ctx, ref, logger)
	if err != nil {
		res = Resolution{Outcome: OutcomeError, Err: err}
	}
	res.Ref = ref
	res.ID = id
	res.Duration = r.now().Sub(start)

	r.recorder.IncResolution(res.Outcome.String())
	r.recorder.ObserveResolutionDuration(res.Outcome.String(), res.Duration)
	report(ctx, logger, res)

	return res, err
}

func (r *Resolver) resolve(ctx context.Context, ref repository.Ref, logger *slog.Logger) (res Resolution, err error) {
	svc, err := r.opener.Open(ctx, ref)
	if err != nil {
		return Resolution{}, fmt.Errorf("open repository %s: %w", ref, err)
	}
	defer func() {
		if cerr := svc.Close(); cerr != nil {
			logger.WarnContext(ctx, "Failed to close repository service", logfields.Error(cerr))
		}
	}()

	entries, err := svc.ListRootEntries(ctx)
	if err != nil {
		return Resolution{}, fmt.Errorf("list root of %s: %w", ref, err)
	}
	loc := Locate(entries)
	for _, dir := range loc.IgnoredDirs {
		logger.DebugContext(ctx, "Ignoring directory named like a documentation configuration file", logfields.Path(dir))
	}
	if !loc.Found() {
		return Resolution{Outcome: loc.Outcome}, nil
	}
	res.File = loc.Filename

	content, err := svc.ReadFile(ctx, loc.Filename)
	if err != nil {
		return Resolution{}, fmt.Errorf("read %s of %s: %w", loc.Filename, ref, err)
	}
	settings, err := ParseSettings(content)
	if err != nil {
		res.Outcome, res.Err = OutcomeMalformedConfig, err
		return res, nil
	}
	if err := ValidateSettings(settings); err != nil {
		res.Outcome, res.Err = OutcomeInvalidSettings, err
		return res, nil
	}

	branches, err := svc.ListBranches(ctx)
	if err != nil {
		return Resolution{}, fmt.Errorf("list branches of %s: %w", ref, err)
	}
	branch, ok := DefaultBranch(branches)
	if !ok {
		res.Outcome = OutcomeNoDefaultBranch
		return res, nil
	}

	res.Outcome = OutcomeFound
	res.Link = &Link{
		BranchName:  branch,
		BasePath:    settings.BasePath,
		LandingPage: settings.LandingPage,
	}
	return res, nil
}

func report(ctx context.Context, logger *slog.Logger, res Resolution) {
	attrs := []any{logfields.Outcome(res.Outcome.String()), logfields.DurationMS(float64(res.Duration.Microseconds()) / 1000)}
	if res.File != "" {
		attrs = append(attrs, logfields.File(res.File))
	}

	switch res.Outcome {
	case OutcomeFound:
		attrs = append(attrs,
			logfields.Branch(res.Link.BranchName),
			logfields.BasePath(res.Link.BasePath),
			logfields.LandingPage(res.Link.LandingPage))
		logger.DebugContext(ctx, "Documentation viewer resolved", attrs...)
	case OutcomeAmbiguousConfig:
		logger.WarnContext(ctx, "Both documentation.yaml and documentation.yml found, only one is allowed", attrs...)
	case OutcomeMalformedConfig:
		logger.WarnContext(ctx, "Documentation configuration could not be parsed", append(attrs, logfields.Error(res.Err))...)
	case OutcomeInvalidSettings:
		logger.DebugContext(ctx, "Documentation settings are invalid", append(attrs, logfields.Reason(res.Err.Error()))...)
	case OutcomeError:
		logger.WarnContext(ctx, "Documentation resolution failed", append(attrs, logfields.Error(res.Err))...)
	default:
		logger.DebugContext(ctx, "No documentation viewer", append(attrs, logfields.Reason(res.Outcome.Describe()))...)
	}
}
