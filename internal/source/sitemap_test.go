package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/docfold/docfold/internal/policy"
)

// newSitemapServer serves the body produced by render, which receives the
// server's own base URL so entries can be same-origin.
func newSitemapServer(t *testing.T, status int, render func(base string) string) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		fmt.Fprint(w, render(srv.URL))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSitemapDiscoverSortedDeduped(t *testing.T) {
	t.Parallel()

	srv := newSitemapServer(t, http.StatusOK, func(base string) string {
		return fmt.Sprintf(`<?xml version="1.0"?>
<urlset>
  <url><loc>%[1]s/docs/b</loc></url>
  <url><loc> %[1]s/docs/a </loc></url>
  <url><loc>%[1]s/docs/b#frag</loc></url>
  <url><loc>https://other.example.com/docs/c</loc></url>
</urlset>`, base)
	})

	src := NewSitemapSource(srv.URL+"/sitemap.xml", "docfold-test", policy.Filter{}, 5*time.Second, zap.NewNop())
	urls, err := src.Discover(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{srv.URL + "/docs/a", srv.URL + "/docs/b"}, urls,
		"expected sorted, deduplicated, same-origin URLs")
}

func TestSitemapDiscoverAppliesFilters(t *testing.T) {
	t.Parallel()

	srv := newSitemapServer(t, http.StatusOK, func(base string) string {
		return fmt.Sprintf(`<urlset>
<url><loc>%[1]s/docs/a</loc></url>
<url><loc>%[1]s/docs/a?ref=1</loc></url>
<url><loc>%[1]s/blog/a</loc></url>
</urlset>`, base)
	})

	filter := policy.Filter{Includes: []string{"/docs/"}, Excludes: []string{"?ref="}}
	src := NewSitemapSource(srv.URL+"/sitemap.xml", "docfold-test", filter, 5*time.Second, zap.NewNop())
	urls, err := src.Discover(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{srv.URL + "/docs/a"}, urls)
}

func TestSitemapDiscoverToleratesMalformedXML(t *testing.T) {
	t.Parallel()

	srv := newSitemapServer(t, http.StatusOK, func(base string) string {
		// Unterminated tags around a valid <loc> entry.
		return fmt.Sprintf(`<urlset><url><loc>%s/docs/a</loc><url><broken`, base)
	})

	src := NewSitemapSource(srv.URL+"/sitemap.xml", "docfold-test", policy.Filter{}, 5*time.Second, zap.NewNop())
	urls, err := src.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, urls, 1)
}

func TestSitemapDiscoverEmpty(t *testing.T) {
	t.Parallel()

	srv := newSitemapServer(t, http.StatusOK, func(string) string {
		return `<urlset></urlset>`
	})

	src := NewSitemapSource(srv.URL+"/sitemap.xml", "docfold-test", policy.Filter{}, 5*time.Second, zap.NewNop())
	urls, err := src.Discover(context.Background())
	require.NoError(t, err)
	require.Empty(t, urls)
}

func TestSitemapDiscoverErrorStatusYieldsNoURLs(t *testing.T) {
	t.Parallel()

	srv := newSitemapServer(t, http.StatusInternalServerError, func(string) string { return "" })

	src := NewSitemapSource(srv.URL+"/sitemap.xml", "docfold-test", policy.Filter{}, 5*time.Second, zap.NewNop())
	urls, err := src.Discover(context.Background())
	require.NoError(t, err, "an unreachable sitemap is an empty result, not a distinct failure")
	require.Empty(t, urls)
}

func TestSitemapDiscoverTransportFailureYieldsNoURLs(t *testing.T) {
	t.Parallel()

	srv := newSitemapServer(t, http.StatusOK, func(string) string { return "" })
	srv.Close() // unreachable on purpose

	src := NewSitemapSource(srv.URL+"/sitemap.xml", "docfold-test", policy.Filter{}, 5*time.Second, zap.NewNop())
	urls, err := src.Discover(context.Background())
	require.NoError(t, err)
	require.Empty(t, urls)
}
