package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/docviewer/internal/config"
	"git.home.luguber.info/inful/docviewer/internal/docviewer"
	"git.home.luguber.info/inful/docviewer/internal/foundation/errors"
	"git.home.luguber.info/inful/docviewer/internal/git"
	"git.home.luguber.info/inful/docviewer/internal/metrics"
	"git.home.luguber.info/inful/docviewer/internal/scan"
)

// ScanCmd implements the 'scan' command.
type ScanCmd struct {
	Forge       []string `short:"f" xor:"source" help:"Only scan these forges (repeatable)"`
	Local       bool     `xor:"source" help:"Scan the repositories below git.root instead of forges"`
	Concurrency int      `help:"Parallel resolutions (overrides scan.concurrency)"`
	Format      string   `enum:"text,json" default:"text" help:"Output format (text, json)"`
	FoundOnly   bool     `help:"Only list repositories advertising a documentation viewer"`
}

func (s *ScanCmd) Run(g *Global, root *CLI) error {
	cfg, err := g.loadConfig(root)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	concurrency := cfg.Scan.Concurrency
	if s.Concurrency > 0 {
		concurrency = s.Concurrency
	}
	scanner := scan.NewScanner(scan.WithConcurrency(concurrency), scan.WithLogger(g.Logger))

	report, err := s.run(ctx, g, cfg, scanner)
	if err != nil {
		return err
	}
	if s.FoundOnly {
		found := report.Results[:0]
		for _, res := range report.Results {
			if res.Outcome == docviewer.OutcomeFound {
				found = append(found, res)
			}
		}
		report.Results = found
	}

	if s.Format == "json" {
		enc := json.NewEncoder(g.stdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		writeScanText(g.stdout(), report)
	}

	if len(report.Errors) > 0 {
		return errors.ForgeError(fmt.Sprintf("repository listing failed for %d forge(s)", len(report.Errors))).Build()
	}
	return nil
}

func (s *ScanCmd) run(ctx context.Context, g *Global, cfg *config.Config, scanner *scan.Scanner) (*scan.Report, error) {
	if s.Local || (len(cfg.Forges) == 0 && len(s.Forge) == 0) {
		if cfg.Git.Root == "" {
			return nil, errors.ConfigError("nothing to scan: configure git.root or at least one forge").
				WithContext("field", "git.root").
				Build()
		}
		opener := git.NewOpener(cfg.Git.Root)
		refs, err := opener.List()
		if err != nil {
			return nil, err
		}
		resolver := docviewer.NewResolver(opener, g.resolverOptions(metrics.NoopRecorder{})...)
		return scanner.ResolveRefs(ctx, resolver, refs)
	}

	m, err := g.forgeManager(cfg, metrics.NoopRecorder{}, s.Forge...)
	if err != nil {
		return nil, err
	}
	return scanner.ScanForges(ctx, m, g.resolverOptions(metrics.NoopRecorder{})...)
}

func writeScanText(w io.Writer, report *scan.Report) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "REPOSITORY\tFORGE\tOUTCOME\tBRANCH\tBASE PATH\tLANDING PAGE")
	for _, res := range report.Results {
		forgeName := res.Forge
		if forgeName == "" {
			forgeName = "-"
		}
		branch, basePath, landing := "-", "-", "-"
		if res.Link != nil {
			branch, basePath, landing = res.Link.BranchName, res.Link.BasePath, res.Link.LandingPage
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", res.Ref, forgeName, res.Outcome, branch, basePath, landing)
	}
	_ = tw.Flush()

	_, _ = fmt.Fprintf(w, "\n%d repositories, %d with documentation viewer, %d skipped (%s)\n",
		len(report.Results), report.Counts()[docviewer.OutcomeFound], len(report.Skipped), report.Duration.Round(time.Millisecond))
	for forgeName, msg := range report.Errors {
		_, _ = fmt.Fprintf(w, "forge %s: %s\n", forgeName, msg)
	}
}
