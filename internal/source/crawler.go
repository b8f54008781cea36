package source

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/docfold/docfold/internal/metrics"
	"github.com/docfold/docfold/internal/policy"
)

// Crawler discovers URLs with a breadth-first traversal from a start URL.
// The frontier is a FIFO queue; a URL is marked visited before it is fetched,
// which guarantees at most one fetch per normalized URL even when several
// parents enqueue it. The crawl loop is deliberately serial: the polite delay
// between fetches is a courtesy to the target site, and concurrency is
// reserved for the render stage.
type Crawler struct {
	startURL string
	filter   policy.Filter
	robots   policy.RobotsPolicy
	fetcher  Fetcher
	maxPages int
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// NewCrawler builds a Crawler. maxPages caps the number of accepted URLs, not
// the frontier length; delay is the minimum spacing between page fetches.
func NewCrawler(
	startURL string,
	filter policy.Filter,
	robots policy.RobotsPolicy,
	fetcher Fetcher,
	maxPages int,
	delay time.Duration,
	logger *zap.Logger,
) *Crawler {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Crawler{
		startURL: startURL,
		filter:   filter,
		robots:   robots,
		fetcher:  fetcher,
		maxPages: maxPages,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger,
	}
}

// Discover runs the crawl and returns the accepted URLs in discovery order.
// Per-page fetch failures are logged and skipped; only a canceled context
// aborts the loop.
func (c *Crawler) Discover(ctx context.Context) ([]string, error) {
	visited := make(map[string]struct{})
	frontier := []string{c.startURL}
	var accepted []string

	for len(frontier) > 0 && len(accepted) < c.maxPages {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("crawl canceled: %w", err)
		}

		raw := frontier[0]
		frontier = frontier[1:]

		u, err := policy.Normalize(raw)
		if err != nil {
			c.logger.Debug("skipping unparseable URL", zap.String("url", raw), zap.Error(err))
			continue
		}
		if _, seen := visited[u]; seen {
			continue
		}
		visited[u] = struct{}{}

		if !policy.SameOrigin(c.startURL, u) {
			c.logger.Debug("skipping URL", zap.String("url", u), zap.String("reason", "different origin"))
			continue
		}
		if !c.filter.Match(u) {
			c.logger.Debug("skipping URL", zap.String("url", u), zap.String("reason", "filter mismatch"))
			continue
		}
		if !c.robots.Allowed(ctx, u) {
			metrics.RobotsSkips.Inc()
			c.logger.Info("skipping URL", zap.String("url", u), zap.String("reason", "robots disallowed"))
			continue
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("crawl delay: %w", err)
		}

		page, err := c.fetcher.Fetch(ctx, u)
		if err != nil {
			metrics.FetchErrors.Inc()
			c.logger.Warn("fetch error", zap.String("url", u), zap.Error(err))
			continue
		}
		if page.StatusCode >= 400 {
			continue
		}

		accepted = append(accepted, u)
		metrics.PagesAccepted.Inc()

		for _, link := range page.Links {
			nl, err := policy.Normalize(link)
			if err != nil {
				continue
			}
			if _, seen := visited[nl]; seen {
				continue
			}
			if !policy.SameOrigin(c.startURL, nl) || !c.filter.Match(nl) {
				continue
			}
			frontier = append(frontier, nl)
		}
	}

	return accepted, nil
}
