package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/docfold/docfold/internal/policy"
)

// locPattern matches <loc> entries anywhere in the sitemap body. A relaxed
// pattern scan is deliberate: malformed XML must not hard-fail the run.
var locPattern = regexp.MustCompile(`(?s)<loc>(.*?)</loc>`)

const maxSitemapBytes = 50 << 20

// SitemapSource discovers URLs from a sitemap.xml location. Results are
// restricted to the sitemap's own origin, filtered by the include/exclude
// rules, deduplicated, and sorted for determinism. Robots rules and crawl
// depth do not apply in sitemap mode.
type SitemapSource struct {
	sitemapURL string
	filter     policy.Filter
	userAgent  string
	client     *http.Client
	logger     *zap.Logger
}

// NewSitemapSource builds a SitemapSource for the given sitemap location.
func NewSitemapSource(sitemapURL, userAgent string, filter policy.Filter, timeout time.Duration, logger *zap.Logger) *SitemapSource {
	return &SitemapSource{
		sitemapURL: sitemapURL,
		filter:     filter,
		userAgent:  userAgent,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Discover fetches the sitemap once and returns the eligible URLs in sorted
// order. The sitemap is never retried; a fetch failure yields an empty list
// so the run dies with the same "no URLs" condition as an empty sitemap.
func (s *SitemapSource) Discover(ctx context.Context) ([]string, error) {
	body, err := s.fetch(ctx)
	if err != nil {
		s.logger.Warn("sitemap fetch failed",
			zap.String("sitemap", s.sitemapURL), zap.Error(err))
		return nil, nil
	}

	seen := make(map[string]struct{})
	var urls []string
	for _, m := range locPattern.FindAllStringSubmatch(body, -1) {
		loc := strings.TrimSpace(m[1])
		if loc == "" {
			continue
		}
		if !policy.SameOrigin(s.sitemapURL, loc) {
			continue
		}
		normalized, err := policy.Normalize(loc)
		if err != nil {
			s.logger.Debug("skipping unparseable sitemap entry", zap.String("loc", loc), zap.Error(err))
			continue
		}
		if !s.filter.Match(normalized) {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		urls = append(urls, normalized)
	}
	sort.Strings(urls)
	return urls, nil
}

func (s *SitemapSource) fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.sitemapURL, nil)
	if err != nil {
		return "", fmt.Errorf("new sitemap request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch sitemap: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			s.logger.Debug("Failed to close sitemap response body", zap.Error(cerr))
		}
	}()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("sitemap status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSitemapBytes))
	if err != nil {
		return "", fmt.Errorf("read sitemap body: %w", err)
	}
	return string(body), nil
}
