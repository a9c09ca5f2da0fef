package commands

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"git.home.luguber.info/inful/docviewer/internal/config"
	"git.home.luguber.info/inful/docviewer/internal/docviewer"
	"git.home.luguber.info/inful/docviewer/internal/foundation/errors"
	"git.home.luguber.info/inful/docviewer/internal/git"
	"git.home.luguber.info/inful/docviewer/internal/metrics"
	"git.home.luguber.info/inful/docviewer/internal/repository"
)

// ResolveCmd implements the 'resolve' command.
type ResolveCmd struct {
	Repository string `arg:"" optional:"" help:"Repository reference as namespace/name"`
	Path       string `short:"p" xor:"source" help:"Resolve the git repository at this path"`
	Forge      string `short:"f" xor:"source" help:"Resolve through the named forge"`
	Explain    bool   `short:"e" help:"Report the outcome and its reason"`
}

type resolveOutput struct {
	Repository          string          `json:"repository"`
	Outcome             string          `json:"outcome,omitempty"`
	Reason              string          `json:"reason,omitempty"`
	File                string          `json:"file,omitempty"`
	ResolutionID        string          `json:"resolutionId,omitempty"`
	DurationMS          float64         `json:"durationMs,omitempty"`
	DocumentationViewer *docviewer.Link `json:"documentationViewer"`
}

func (r *ResolveCmd) Run(g *Global, root *CLI) error {
	cfg, err := g.loadConfig(root)
	if err != nil {
		return err
	}
	ref, opener, err := r.target(g, cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	resolver := docviewer.NewResolver(opener, g.resolverOptions(metrics.NoopRecorder{})...)
	res, err := resolver.Explain(ctx, ref)
	if err != nil {
		return err
	}

	out := resolveOutput{Repository: ref.String(), DocumentationViewer: res.Link}
	if r.Explain {
		out.Outcome = res.Outcome.String()
		out.Reason = res.Reason()
		out.File = res.File
		out.ResolutionID = res.ID
		out.DurationMS = float64(res.Duration.Microseconds()) / 1000
	}
	enc := json.NewEncoder(g.stdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// target picks the repository reference and the opener serving it.
func (r *ResolveCmd) target(g *Global, cfg *config.Config) (repository.Ref, repository.Opener, error) {
	if r.Path != "" {
		return r.pathTarget()
	}

	if r.Repository == "" {
		return repository.Ref{}, nil, errors.ValidationError("a repository reference is required unless --path is given").Build()
	}
	ref, err := repository.ParseRef(r.Repository)
	if err != nil {
		return repository.Ref{}, nil, err
	}

	if r.Forge != "" {
		m, err := g.forgeManager(cfg, metrics.NoopRecorder{}, r.Forge)
		if err != nil {
			return repository.Ref{}, nil, err
		}
		opener, err := m.Opener(r.Forge)
		if err != nil {
			return repository.Ref{}, nil, err
		}
		return ref, opener, nil
	}

	if cfg.Git.Root == "" {
		return repository.Ref{}, nil, errors.ConfigError("git.root is not configured; use --path or --forge").
			WithContext("field", "git.root").
			Build()
	}
	return ref, git.NewOpener(cfg.Git.Root), nil
}

// pathTarget opens the repository at Path whatever ref is asked for. Without
// an explicit reference the ref is derived from the last two path elements.
func (r *ResolveCmd) pathTarget() (repository.Ref, repository.Opener, error) {
	dir, err := filepath.Abs(r.Path)
	if err != nil {
		return repository.Ref{}, nil, errors.FileSystemError("invalid repository path").
			WithCause(err).
			WithContext("path", r.Path).
			Build()
	}

	ref := repository.Ref{
		Namespace: filepath.Base(filepath.Dir(dir)),
		Name:      strings.TrimSuffix(filepath.Base(dir), ".git"),
	}
	if r.Repository != "" {
		if ref, err = repository.ParseRef(r.Repository); err != nil {
			return repository.Ref{}, nil, err
		}
	}

	opener := repository.OpenerFunc(func(ctx context.Context, _ repository.Ref) (repository.Service, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		svc, err := git.OpenPath(dir)
		if err != nil {
			return nil, err
		}
		return svc, nil
	})
	return ref, opener, nil
}
