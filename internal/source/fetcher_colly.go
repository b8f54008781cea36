package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// CollyFetcher implements the Fetcher interface using the Colly collector.
type CollyFetcher struct {
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// NewCollyFetcher constructs a configured Colly-based Fetcher. Robots checks
// are left to the policy layer, which runs before any fetch is attempted.
func NewCollyFetcher(userAgent string, timeout time.Duration, logger *zap.Logger) *CollyFetcher {
	base := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.Async(true),
		colly.IgnoreRobotsTxt(),
	)
	base.AllowURLRevisit = true
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          32,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ForceAttemptHTTP2:     true,
	})
	base.SetRequestTimeout(timeout)

	return &CollyFetcher{
		baseCollector: base,
		logger:        logger,
	}
}

// Fetch retrieves a page via a cloned collector and collects its anchor hrefs,
// resolved to absolute URLs against the page location.
func (f *CollyFetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	collector := f.baseCollector.Clone()

	page := Page{URL: rawURL}
	var transportErr error

	collector.OnResponse(func(r *colly.Response) {
		page.StatusCode = r.StatusCode
	})
	collector.OnHTML("a[href]", func(e *colly.HTMLElement) {
		if link := e.Request.AbsoluteURL(e.Attr("href")); link != "" {
			page.Links = append(page.Links, link)
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			// The server answered with an error status; not a transport failure.
			page.StatusCode = r.StatusCode
			return
		}
		if err == nil {
			err = errors.New("unknown colly error")
		}
		transportErr = err
	})

	if err := collector.Visit(rawURL); err != nil {
		return Page{URL: rawURL}, fmt.Errorf("visit %s: %w", rawURL, err)
	}
	collector.Wait()

	if err := ctx.Err(); err != nil {
		return Page{URL: rawURL}, err
	}
	if transportErr != nil {
		return Page{URL: rawURL}, fmt.Errorf("fetch %s: %w", rawURL, transportErr)
	}
	return page, nil
}
