package policy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
)

// RobotsPolicy decides whether a URL may be fetched under robots.txt rules.
type RobotsPolicy interface {
	Allowed(ctx context.Context, rawURL string) bool
}

// RobotsEnforcer enforces robots.txt directives with a per-host rule cache.
// A failure to fetch or parse robots.txt is treated as permissive: an
// unreachable robots file must not block an otherwise reachable site.
type RobotsEnforcer struct {
	client    *http.Client
	cache     sync.Map
	userAgent string
	logger    *zap.Logger
}

// NewRobotsPolicy builds a RobotsPolicy. When respect is false the returned
// policy allows everything, which is what sitemap mode uses.
func NewRobotsPolicy(respect bool, userAgent string, logger *zap.Logger) RobotsPolicy {
	if !respect {
		return &allowAllPolicy{}
	}
	return &RobotsEnforcer{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		userAgent: userAgent,
		logger:    logger,
	}
}

// Allowed implements RobotsPolicy.
func (r *RobotsEnforcer) Allowed(ctx context.Context, rawURL string) bool {
	if r == nil {
		return true
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	group := r.load(ctx, parsed).FindGroup(r.userAgent)
	if group == nil {
		return true
	}
	// Rules match against path plus query, e.g. "Disallow: /search?".
	target := parsed.Path
	if target == "" {
		target = "/"
	}
	if parsed.RawQuery != "" {
		target += "?" + parsed.RawQuery
	}
	return group.Test(target)
}

// load returns the cached robots rules for the URL's host, fetching them on
// the first sighting. Any failure to fetch or parse caches a permissive rule
// set: an unreachable robots.txt must not block the host, and it is consulted
// once per run, not once per URL.
func (r *RobotsEnforcer) load(ctx context.Context, parsed *url.URL) *robotstxt.RobotsData {
	hostKey := strings.ToLower(parsed.Host)
	if data, ok := r.cache.Load(hostKey); ok {
		if cached, assertOK := data.(*robotstxt.RobotsData); assertOK {
			return cached
		}
	}

	data, err := r.fetch(ctx, parsed)
	if err != nil {
		r.logger.Warn("robots fetch failed; allowing host",
			zap.String("host", parsed.Host), zap.Error(err))
		data = permissiveRobots()
	}
	r.cache.Store(hostKey, data)
	return data
}

func (r *RobotsEnforcer) fetch(ctx context.Context, parsed *url.URL) (*robotstxt.RobotsData, error) {
	robotsURL := *parsed
	robotsURL.Path = path.Join("/", "robots.txt")
	robotsURL.RawQuery = ""
	robotsURL.Fragment = ""
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("new robots request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			r.logger.Debug("Failed to close robots response body", zap.Error(cerr))
		}
	}()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read robots body: %w", err)
	}
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, fmt.Errorf("parse robots: %w", err)
	}
	return data, nil
}

func permissiveRobots() *robotstxt.RobotsData {
	data, err := robotstxt.FromStatusAndBytes(http.StatusOK, nil)
	if err != nil {
		// An empty body cannot fail to parse.
		return &robotstxt.RobotsData{}
	}
	return data
}

type allowAllPolicy struct{}

func (a *allowAllPolicy) Allowed(context.Context, string) bool { return true }
