// Package metrics exposes Prometheus counters for the docfold pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PagesAccepted tracks the number of URLs accepted during discovery.
	PagesAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docfold_pages_accepted_total",
		Help: "The total number of URLs accepted by the discovery stage.",
	})
	// FetchErrors tracks the number of page fetches that failed during the crawl.
	FetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docfold_fetch_errors_total",
		Help: "The total number of failed page fetches during crawling.",
	})
	// RobotsSkips tracks URLs skipped because robots.txt disallowed them.
	RobotsSkips = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docfold_robots_skips_total",
		Help: "The total number of URLs skipped by robots.txt rules.",
	})
	// RendersSucceeded tracks pages successfully rendered to PDF.
	RendersSucceeded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docfold_renders_succeeded_total",
		Help: "The total number of pages rendered to PDF.",
	})
	// RendersFailed tracks pages whose render failed or timed out.
	RendersFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docfold_renders_failed_total",
		Help: "The total number of page renders that failed.",
	})
	// MergeSkips tracks artifacts dropped during the merge because they were unreadable.
	MergeSkips = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docfold_merge_skips_total",
		Help: "The total number of artifacts skipped during the merge.",
	})
)
