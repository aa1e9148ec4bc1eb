package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/catalog-cli/internal/catalog"
	"github.com/sells-group/catalog-cli/internal/config"
	"github.com/sells-group/catalog-cli/internal/enrich"
	"github.com/sells-group/catalog-cli/internal/export"
	"github.com/sells-group/catalog-cli/internal/fetcher"
	"github.com/sells-group/catalog-cli/internal/pipeline"
	"github.com/sells-group/catalog-cli/internal/resilience"
	"github.com/sells-group/catalog-cli/internal/source"
)

var (
	runOutputDir string
	runFormat    string
	runJSON      bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect, enrich, filter, and rank the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		applyOutputFlags(cfg, runOutputDir, runFormat)
		if err := cfg.Validate("run"); err != nil {
			return err
		}

		st, err := initStore(ctx, cfg)
		if err != nil {
			// The snapshot is optional; the run goes ahead without it.
			zap.L().Error("store init failed, skipping snapshot", zap.Error(err))
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
		}

		site := siteFromConfig(cfg)
		listing := fetcher.NewHTTPFetcher(listingOptions(cfg, site))
		detail := fetcher.NewHTTPFetcher(detailOptions(cfg))

		sources, err := buildSources(cfg.Listing.Sources, listing, site)
		if err != nil {
			return err
		}
		assembler := catalog.NewAssembler(sources, catalog.Options{
			Spacing:  cfg.ListingDelay(),
			MaxPages: cfg.Listing.MaxPages,
		})
		enricher := enrich.NewEnricher(detail, enrich.Options{
			Workers: cfg.Detail.Workers,
			Delay:   cfg.DetailDelay(),
		})

		opts, err := pipelineOptions(cfg)
		if err != nil {
			return err
		}
		p := pipeline.New(assembler, enricher, st, opts)

		report, err := p.Run(ctx)
		if err != nil {
			return eris.Wrap(err, "run")
		}

		if runJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runOutputDir, "output-dir", "", "directory for output files (overrides output.dir)")
	runCmd.Flags().StringVar(&runFormat, "format", "", "output format: csv or xlsx (overrides output.format)")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the run report as JSON")
	rootCmd.AddCommand(runCmd)
}

func applyOutputFlags(c *config.Config, dir, format string) {
	if dir != "" {
		c.Output.Dir = dir
	}
	if format != "" {
		c.Output.Format = format
	}
}

func siteFromConfig(c *config.Config) source.Site {
	return source.Site{
		Origin:      c.Site.Origin,
		LandingURL:  c.Site.LandingURL,
		FeedURL:     c.Site.FeedURL,
		BrowseURL:   c.Site.BrowseURL,
		ChannelID:   c.Site.ChannelID,
		Marketplace: c.Site.Marketplace,
		Language:    c.Site.Language,
		Path:        c.Site.Path,
		Gender:      c.Site.Gender,
		PageSize:    c.Listing.PageSize,
	}
}

func listingOptions(c *config.Config, site source.Site) fetcher.HTTPOptions {
	return fetcher.HTTPOptions{
		UserAgent:      c.HTTP.UserAgent,
		AcceptLanguage: c.HTTP.AcceptLanguage,
		Timeout:        time.Duration(c.HTTP.ListingTimeoutSecs) * time.Second,
		Retry:          resilience.DefaultRetryConfig().WithAttempts(c.HTTP.MaxAttempts),
		RateLimiters:   fetcher.HostLimiters(c.HTTP.HostRPS, c.HTTP.HostBurst, site.FeedURL, site.BrowseURL, site.LandingURL),
	}
}

func detailOptions(c *config.Config) fetcher.HTTPOptions {
	return fetcher.HTTPOptions{
		UserAgent:      c.HTTP.UserAgent,
		AcceptLanguage: c.HTTP.AcceptLanguage,
		Accept:         "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8",
		Timeout:        time.Duration(c.HTTP.DetailTimeoutSecs) * time.Second,
		Retry:          resilience.DefaultRetryConfig().WithAttempts(c.HTTP.MaxAttempts),
		RateLimiters:   fetcher.HostLimiters(c.HTTP.HostRPS, c.HTTP.HostBurst, c.Site.Origin),
		Breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:             "detail",
			FailureThreshold: c.HTTP.CircuitThreshold,
			ResetTimeout:     time.Duration(c.HTTP.CircuitResetSecs) * time.Second,
			ShouldTrip:       tripsBreaker,
		}),
	}
}

// tripsBreaker counts transport failures and transient statuses. A missing
// or oversized detail page says nothing about the host's health.
func tripsBreaker(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, fetcher.ErrBodyTooLarge) {
		return false
	}
	var statusErr *fetcher.StatusError
	if errors.As(err, &statusErr) {
		return resilience.IsTransientHTTPStatus(statusErr.StatusCode)
	}
	return true
}

func buildSources(names []string, f fetcher.Fetcher, site source.Site) ([]source.Source, error) {
	sources := make([]source.Source, 0, len(names))
	for _, name := range names {
		switch name {
		case "feed":
			sources = append(sources, source.NewFeedSource(f, site))
		case "browse":
			sources = append(sources, source.NewBrowseSource(f, site))
		case "page_state":
			sources = append(sources, source.NewPageStateSource(f, site))
		default:
			return nil, eris.Errorf("unknown listing source %q", name)
		}
	}
	return sources, nil
}

func pipelineOptions(c *config.Config) (pipeline.Options, error) {
	format, err := export.ParseFormat(c.Output.Format)
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		OutputDir:       c.Output.Dir,
		Format:          format,
		CatalogFile:     c.Output.CatalogFile,
		RankingFile:     c.Output.RankingFile,
		ReviewThreshold: c.Rank.ReviewThreshold,
		TopN:            c.Rank.TopN,
		ExpensiveN:      c.Rank.ExpensiveN,
		Console:         os.Stdout,
	}, nil
}
