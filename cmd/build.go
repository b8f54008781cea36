package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/docfold/docfold/internal/logging"
	"github.com/docfold/docfold/internal/merge"
	"github.com/docfold/docfold/internal/pipeline"
	"github.com/docfold/docfold/internal/policy"
	"github.com/docfold/docfold/internal/render"
	"github.com/docfold/docfold/internal/source"
)

// newBuildCmd creates and configures the 'build' subcommand, which runs the
// full discovery → render → merge pipeline.
func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the merged PDF",
		Long: `Discovers page URLs from a sitemap (--sitemap) or a same-domain crawl
(--start), renders every page to PDF under bounded concurrency, and merges the
snapshots into a single bookmarked document at --out.`,
		RunE: runBuildCommand,
	}

	cmd.Flags().String("sitemap", "", "sitemap.xml URL (mutually exclusive with --start)")
	cmd.Flags().String("start", "", "start URL for a same-domain crawl")
	cmd.Flags().String("include", "", "comma-separated substrings URLs must include")
	cmd.Flags().String("exclude", "", "comma-separated substrings URLs must exclude")
	cmd.Flags().String("out", "", "output PDF path")
	cmd.Flags().Int("max-pages", 500, "max pages to include (crawl mode)")
	cmd.Flags().Int("concurrency", 4, "parallel PDF renders")
	cmd.Flags().Duration("timeout", 45*time.Second, "per-page load timeout")
	cmd.Flags().Bool("keep", false, "keep individual page PDFs in the artifact dir")

	bindings := map[string]string{
		"discovery.sitemap_url": "sitemap",
		"discovery.start_url":   "start",
		"discovery.include":     "include",
		"discovery.exclude":     "exclude",
		"output.path":           "out",
		"discovery.max_pages":   "max-pages",
		"render.concurrency":    "concurrency",
		"render.timeout":        "timeout",
		"output.keep_artifacts": "keep",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", flag, err))
		}
	}

	return cmd
}

func runBuildCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := pipeline.LoadConfig(viper.GetViper())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush

	src := buildSource(cfg, logger)
	factory := func() (pipeline.Renderer, error) {
		return render.NewChromeRenderer(render.Config{
			Concurrency: cfg.Concurrency,
			Timeout:     cfg.RenderTimeout,
			ArtifactDir: cfg.ArtifactDir,
			UserAgent:   cfg.UserAgent,
		}, logger)
	}
	merger := merge.NewPDFMerger(logger)

	p := pipeline.New(src, factory, merger, cfg, logger)
	return p.Run(cmd.Context())
}

// buildSource selects the discovery strategy. Sitemap mode applies only
// origin and substring filters; robots rules and crawl limits apply in crawl
// mode only.
func buildSource(cfg pipeline.Config, logger *zap.Logger) source.Source {
	filter := policy.Filter{Includes: cfg.Includes, Excludes: cfg.Excludes}

	if cfg.SitemapURL != "" {
		return source.NewSitemapSource(cfg.SitemapURL, cfg.UserAgent, filter, cfg.FetchTimeout, logger)
	}

	fetcher := source.NewCollyFetcher(cfg.UserAgent, cfg.FetchTimeout, logger)
	robots := policy.NewRobotsPolicy(true, cfg.UserAgent, logger)
	return source.NewCrawler(cfg.StartURL, filter, robots, fetcher, cfg.MaxPages, cfg.PoliteDelay, logger)
}
