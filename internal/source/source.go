// Package source produces the ordered list of page URLs a run will render.
// Two strategies exist: a sitemap scan and a same-origin breadth-first crawl.
package source

import "context"

// Source yields the ordered, deduplicated, filter-passed URL list for a run.
// Later stages never re-apply policy filtering.
type Source interface {
	Discover(ctx context.Context) ([]string, error)
}

// Page is the result of fetching one URL during a crawl.
type Page struct {
	URL        string
	StatusCode int
	// Links holds the absolute anchor targets found in the page body,
	// in document order.
	Links []string
}

// Fetcher retrieves a single page and extracts its outgoing links.
// A nil error with StatusCode >= 400 means the server answered but the page
// is not usable; a non-nil error means the transport failed.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Page, error)
}
