// Package render turns page URLs into individual PDF artifacts using headless
// Chrome via chromedp.
package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/docfold/docfold/internal/metrics"
)

// A4 paper dimensions and the page margin, in inches (chromedp's unit).
const (
	a4WidthInches  = 8.27
	a4HeightInches = 11.69
	marginInches   = 12.0 / 25.4
)

// settleDelay gives late asset loads a moment to finish after the document
// body is ready, within the per-page timeout.
const settleDelay = 500 * time.Millisecond

// Artifact is a rendered single-document PDF for one source URL.
type Artifact struct {
	URL  string
	Path string
}

// Config controls the behavior of the Chrome renderer.
type Config struct {
	Concurrency int
	Timeout     time.Duration
	ArtifactDir string
	UserAgent   string
}

// ChromeRenderer renders pages to PDF using a single shared headless Chrome
// process. Each render task opens its own isolated tab context so no page
// state leaks between concurrent tasks.
type ChromeRenderer struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	sem           chan struct{}
	timeout       time.Duration
	dir           string
	logger        *zap.Logger

	// renderFn renders one URL to an artifact path. It is a field so tests
	// can exercise the pool without launching a browser.
	renderFn func(ctx context.Context, rawURL string) (string, error)
}

// NewChromeRenderer launches the shared browser process and prepares the
// artifact directory.
func NewChromeRenderer(cfg Config, logger *zap.Logger) (*ChromeRenderer, error) {
	if cfg.Concurrency <= 0 {
		return nil, fmt.Errorf("render concurrency must be > 0")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if err := os.MkdirAll(cfg.ArtifactDir, 0o750); err != nil {
		return nil, fmt.Errorf("create artifact dir %s: %w", cfg.ArtifactDir, err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.UserAgent(cfg.UserAgent),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("chromedp warmup: %w", err)
	}

	r := &ChromeRenderer{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		sem:           make(chan struct{}, cfg.Concurrency),
		timeout:       cfg.Timeout,
		dir:           cfg.ArtifactDir,
		logger:        logger,
	}
	r.renderFn = r.renderOne
	return r, nil
}

// Close tears down the shared browser and allocator contexts. It must only be
// called after every in-flight render task has finished.
func (r *ChromeRenderer) Close(_ context.Context) error {
	if r == nil {
		return nil
	}
	r.browserCancel()
	r.allocCancel()
	return nil
}

// RenderAll renders each URL to its own PDF artifact with at most the
// configured number of tasks in flight. A failed render is logged and
// excluded; it never aborts the batch. The returned artifacts are the
// successful subsequence of the input, in input order regardless of
// completion order.
func (r *ChromeRenderer) RenderAll(ctx context.Context, urls []string) []Artifact {
	slots := make([]*Artifact, len(urls))
	var wg sync.WaitGroup

	for i, rawURL := range urls {
		wg.Add(1)
		go func(i int, rawURL string) {
			defer wg.Done()
			release, err := r.acquireSlot(ctx)
			if err != nil {
				metrics.RendersFailed.Inc()
				r.logger.Warn("render slot wait canceled", zap.String("url", rawURL), zap.Error(err))
				return
			}
			defer release()

			path, err := r.renderFn(ctx, rawURL)
			if err != nil {
				metrics.RendersFailed.Inc()
				r.logger.Warn("render failed", zap.String("url", rawURL), zap.Error(err))
				return
			}
			metrics.RendersSucceeded.Inc()
			r.logger.Info("rendered page", zap.String("url", rawURL), zap.String("artifact", filepath.Base(path)))
			slots[i] = &Artifact{URL: rawURL, Path: path}
		}(i, rawURL)
	}
	wg.Wait()

	out := make([]Artifact, 0, len(urls))
	for _, a := range slots {
		if a != nil {
			out = append(out, *a)
		}
	}
	return out
}

func (r *ChromeRenderer) acquireSlot(ctx context.Context) (func(), error) {
	select {
	case r.sem <- struct{}{}:
		return func() { <-r.sem }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("acquire render slot: %w", ctx.Err())
	}
}

func (r *ChromeRenderer) renderOne(ctx context.Context, rawURL string) (string, error) {
	tabCtx, cancelTab := chromedp.NewContext(r.browserCtx)
	defer cancelTab()

	taskCtx, cancelTask := context.WithTimeout(tabCtx, r.timeout)
	defer cancelTask()

	stopForward := forwardCancel(ctx, cancelTask)
	defer stopForward()

	var buf []byte
	tasks := chromedp.Tasks{
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(settleDelay),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if err := emulation.SetEmulatedMedia().WithMedia("print").Do(ctx); err != nil {
				return fmt.Errorf("emulate print media: %w", err)
			}
			var err error
			buf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(a4WidthInches).
				WithPaperHeight(a4HeightInches).
				WithMarginTop(marginInches).
				WithMarginBottom(marginInches).
				WithMarginLeft(marginInches).
				WithMarginRight(marginInches).
				Do(ctx)
			if err != nil {
				return fmt.Errorf("print to pdf: %w", err)
			}
			return nil
		}),
	}
	if err := chromedp.Run(taskCtx, tasks); err != nil {
		return "", fmt.Errorf("chromedp run: %w", err)
	}

	target := filepath.Join(r.dir, artifactName(rawURL))
	if err := os.WriteFile(target, buf, 0o600); err != nil {
		return "", fmt.Errorf("write artifact %s: %w", target, err)
	}
	return target, nil
}

func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
