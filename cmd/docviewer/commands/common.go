package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docviewer/internal/config"
	"git.home.luguber.info/inful/docviewer/internal/docviewer"
	"git.home.luguber.info/inful/docviewer/internal/forge"
	"git.home.luguber.info/inful/docviewer/internal/foundation/errors"
	"git.home.luguber.info/inful/docviewer/internal/metrics"
	"git.home.luguber.info/inful/docviewer/internal/version"
)

// Global carries process-wide state shared by all commands.
type Global struct {
	Logger *slog.Logger
	Stdout io.Writer
	Stderr io.Writer
}

func (g *Global) stdout() io.Writer {
	if g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

func (g *Global) stderr() io.Writer {
	if g.Stderr == nil {
		return os.Stderr
	}
	return g.Stderr
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"docviewer.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Resolve ResolveCmd `cmd:"" help:"Resolve the documentation viewer link of one repository"`
	Scan    ScanCmd    `cmd:"" help:"Resolve documentation viewer links for many repositories"`
	Serve   ServeCmd   `cmd:"" help:"Serve repository documentation metadata over HTTP"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	g.Logger = slog.New(slog.NewTextHandler(g.stderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(g.Logger)
	return nil
}

// NewParser builds the kong parser with g bound for hooks and commands.
func NewParser(cli *CLI, g *Global, opts ...kong.Option) (*kong.Kong, error) {
	base := []kong.Option{
		kong.Name("docviewer"),
		kong.Description("Resolve documentation viewer links from documentation.yaml files in git repositories."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(g),
		kong.Writers(g.stdout(), g.stderr()),
	}
	return kong.New(cli, append(base, opts...)...)
}

// Execute runs the selected command and returns the process exit code.
func Execute(kctx *kong.Context, cli *CLI, g *Global) int {
	err := kctx.Run(g, cli)
	return errors.NewCLIErrorAdapter(cli.Verbose, g.Logger).HandleError(g.stderr(), err)
}

// loadConfig reads and validates the configuration. A missing file at the
// default location falls back to defaults plus environment overrides. Unless
// --verbose was given, the logger is rebuilt from the logging section.
func (g *Global) loadConfig(root *CLI) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if _, statErr := os.Stat(root.Config); os.IsNotExist(statErr) && root.Config == config.DefaultPath {
		cfg, err = config.Parse(nil)
	} else {
		cfg, err = config.Load(root.Config)
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !root.Verbose {
		g.Logger = cfg.Logging.NewLogger(g.stderr())
		slog.SetDefault(g.Logger)
	}
	return cfg, nil
}

// forgeManager creates clients for the configured forges, optionally limited to names.
func (g *Global) forgeManager(cfg *config.Config, rec metrics.Recorder, names ...string) (*forge.Manager, error) {
	configs := cfg.Forges
	if len(names) > 0 {
		configs = make([]*config.ForgeConfig, 0, len(names))
		for _, name := range names {
			fc := cfg.Forge(name)
			if fc == nil {
				return nil, errors.NotFoundError("forge not configured").
					WithContext("forge", name).
					Build()
			}
			configs = append(configs, fc)
		}
	}
	return forge.CreateManager(configs,
		forge.WithRetryPolicy(cfg.Retry.Policy()),
		forge.WithRecorder(rec),
		forge.WithLogger(g.Logger))
}

func (g *Global) resolverOptions(rec metrics.Recorder) []docviewer.Option {
	return []docviewer.Option{docviewer.WithLogger(g.Logger), docviewer.WithRecorder(rec)}
}
