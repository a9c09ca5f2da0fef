package scan

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/docviewer/internal/docviewer"
	"git.home.luguber.info/inful/docviewer/internal/forge"
	"git.home.luguber.info/inful/docviewer/internal/foundation/errors"
	"git.home.luguber.info/inful/docviewer/internal/logfields"
	"git.home.luguber.info/inful/docviewer/internal/repository"
)

// ScanForges lists the repositories of every forge managed by m, applies each
// forge's include/exclude globs and resolves the rest. A forge whose listing
// fails is reported in Report.Errors; the other forges are still scanned.
func (s *Scanner) ScanForges(ctx context.Context, m *forge.Manager, resolverOpts ...docviewer.Option) (*Report, error) {
	var b reportBuilder

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, name := range m.Names() {
		g.Go(func() error {
			targets, skipped, err := s.discover(gctx, m, name, resolverOpts)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.logger.WarnContext(gctx, "Repository listing failed", logfields.Forge(name), logfields.Error(err))
				b.fail(name, err)
				return nil
			}
			b.add(targets, skipped)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report, err := s.Resolve(ctx, b.targets)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(b.skipped, func(i, j int) bool {
		if b.skipped[i].Forge != b.skipped[j].Forge {
			return b.skipped[i].Forge < b.skipped[j].Forge
		}
		return b.skipped[i].Ref.String() < b.skipped[j].Ref.String()
	})
	report.Skipped = b.skipped
	report.Errors = b.errors
	return report, nil
}

func (s *Scanner) discover(ctx context.Context, m *forge.Manager, name string, resolverOpts []docviewer.Option) ([]Target, []Skipped, error) {
	cfg := m.GetConfig(name)
	client := m.GetForge(name)
	if cfg == nil || client == nil {
		return nil, nil, errors.ConfigError("forge configuration not found").
			WithContext("name", name).
			Build()
	}
	filter, err := repository.NewFilter(cfg.Include, cfg.Exclude)
	if err != nil {
		return nil, nil, errors.WrapError(err, errors.CategoryConfig, "invalid repository filter").
			WithContext("forge", name).
			Build()
	}

	repos, err := client.ListRepositories(ctx, cfg.Owners)
	if err != nil {
		return nil, nil, err
	}

	resolver := docviewer.NewResolver(forge.NewOpener(client), resolverOpts...)
	var (
		targets []Target
		skipped []Skipped
	)
	for _, repo := range repos {
		ref := repo.Ref()
		if repo.Archived {
			skipped = append(skipped, Skipped{Forge: name, Ref: ref, Reason: "archived"})
			continue
		}
		if ok, reason := filter.Include(ref); !ok {
			skipped = append(skipped, Skipped{Forge: name, Ref: ref, Reason: reason})
			continue
		}
		targets = append(targets, Target{Forge: name, Ref: ref, Resolver: resolver})
	}
	s.logger.InfoContext(ctx, "Repositories listed", logfields.Forge(name),
		slog.Int("repositories", len(repos)),
		slog.Int("skipped", len(skipped)))
	return targets, skipped, nil
}
