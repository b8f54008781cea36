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
)

func TestCollyFetcherExtractsAbsoluteLinks(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body>
<a href="/docs/a">A</a>
<a href="relative/b">B</a>
<a href="https://external.example.com/c">C</a>
<a name="no-href">D</a>
</body></html>`)
	}))
	t.Cleanup(srv.Close)

	f := NewCollyFetcher("docfold-test", 5*time.Second, zap.NewNop())
	page, err := f.Fetch(context.Background(), srv.URL+"/docs/")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, page.StatusCode)
	require.Equal(t, []string{
		srv.URL + "/docs/a",
		srv.URL + "/docs/relative/b",
		"https://external.example.com/c",
	}, page.Links)
}

func TestCollyFetcherReportsErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not here", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	f := NewCollyFetcher("docfold-test", 5*time.Second, zap.NewNop())
	page, err := f.Fetch(context.Background(), srv.URL+"/missing")
	require.NoError(t, err, "an HTTP error status is not a transport failure")
	require.Equal(t, http.StatusNotFound, page.StatusCode)
	require.Empty(t, page.Links)
}

func TestCollyFetcherTransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // refuse connections

	f := NewCollyFetcher("docfold-test", 2*time.Second, zap.NewNop())
	_, err := f.Fetch(context.Background(), srv.URL+"/page")
	require.Error(t, err)
}

func TestCollyFetcherRefetchAllowed(t *testing.T) {
	t.Parallel()

	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body></body></html>`)
	}))
	t.Cleanup(srv.Close)

	f := NewCollyFetcher("docfold-test", 5*time.Second, zap.NewNop())
	for i := 0; i < 2; i++ {
		page, err := f.Fetch(context.Background(), srv.URL+"/page")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, page.StatusCode)
	}
	require.Equal(t, 2, hits, "the fetcher itself must not dedupe; the crawler's visited set does")
}
