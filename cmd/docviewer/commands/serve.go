package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/docviewer/internal/config"
	"git.home.luguber.info/inful/docviewer/internal/docviewer"
	"git.home.luguber.info/inful/docviewer/internal/foundation/errors"
	"git.home.luguber.info/inful/docviewer/internal/git"
	"git.home.luguber.info/inful/docviewer/internal/logfields"
	"git.home.luguber.info/inful/docviewer/internal/metrics"
	"git.home.luguber.info/inful/docviewer/internal/server"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr string `help:"Listen address (overrides server.addr)"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := g.loadConfig(root)
	if err != nil {
		return err
	}
	if s.Addr != "" {
		cfg.Server.Addr = s.Addr
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv, err := g.newServer(cfg)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

// newServer wires a resolver per source: "" for the local git root and one per
// configured forge.
func (g *Global) newServer(cfg *config.Config) (*server.Server, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	rec := metrics.NewPrometheusRecorder(reg)

	opts := []server.Option{server.WithLogger(g.Logger)}
	if cfg.Metrics.Enabled {
		opts = append(opts, server.WithMetrics(cfg.Metrics.Path, metrics.HTTPHandler(reg)))
	}

	defaultResolver := ""
	sources := 0
	if cfg.Git.Root != "" {
		opts = append(opts, server.WithResolver("", docviewer.NewResolver(git.NewOpener(cfg.Git.Root), g.resolverOptions(rec)...)))
		sources++
	}

	m, err := g.forgeManager(cfg, rec)
	if err != nil {
		return nil, err
	}
	for _, name := range m.Names() {
		opener, err := m.Opener(name)
		if err != nil {
			return nil, err
		}
		opts = append(opts, server.WithResolver(name, docviewer.NewResolver(opener, g.resolverOptions(rec)...)))
		if sources == 0 {
			defaultResolver = name
		}
		sources++
		g.Logger.Debug("Forge registered", logfields.Forge(name))
	}
	if sources == 0 {
		return nil, errors.ConfigError("nothing to serve: configure git.root or at least one forge").Build()
	}
	opts = append(opts, server.WithDefaultResolver(defaultResolver))

	return server.New(cfg.Server, opts...), nil
}
