// Package merge concatenates rendered page artifacts into a single PDF with
// one bookmark per source page.
package merge

import (
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"

	"github.com/docfold/docfold/internal/metrics"
)

// ErrNothingToMerge indicates every artifact was unreadable.
var ErrNothingToMerge = errors.New("no readable artifacts to merge")

// Unit pairs a source URL with its rendered artifact. Units arrive already
// sorted into the original discovery order.
type Unit struct {
	URL  string
	Path string
}

// PDFMerger assembles the output document with pdfcpu.
type PDFMerger struct {
	conf   *model.Configuration
	logger *zap.Logger

	// pageCount is a field so tests can drive the offset arithmetic with
	// synthetic page counts.
	pageCount func(path string) (int, error)
}

// NewPDFMerger builds a merger with relaxed validation: Chrome's PDF output
// is occasionally sloppy and strict validation would reject usable artifacts.
func NewPDFMerger(logger *zap.Logger) *PDFMerger {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	m := &PDFMerger{
		conf:   conf,
		logger: logger,
	}
	m.pageCount = func(path string) (int, error) {
		return api.PageCountFile(path)
	}
	return m
}

// Merge folds the units in order into one document at outPath, bookmarking
// each unit's first page with its source URL. An unreadable artifact is
// skipped with a warning: it contributes no bookmark and does not advance the
// page offset. Returns the total page count of the merged document.
func (m *PDFMerger) Merge(units []Unit, outPath string) (int, error) {
	files, bookmarks, total := m.plan(units)
	if len(files) == 0 {
		return 0, ErrNothingToMerge
	}

	if err := api.MergeCreateFile(files, outPath, false, m.conf); err != nil {
		return 0, fmt.Errorf("merge artifacts: %w", err)
	}
	if err := api.AddBookmarksFile(outPath, "", bookmarks, true, m.conf); err != nil {
		return 0, fmt.Errorf("add bookmarks: %w", err)
	}
	return total, nil
}

// plan walks the units in order, computing the merge file list, the bookmark
// for each readable unit at its cumulative page offset, and the total page
// count. Unreadable and zero-page artifacts contribute nothing.
func (m *PDFMerger) plan(units []Unit) ([]string, []pdfcpu.Bookmark, int) {
	var (
		files     []string
		bookmarks []pdfcpu.Bookmark
		offset    int
	)
	for _, u := range units {
		n, err := m.pageCount(u.Path)
		if err != nil {
			metrics.MergeSkips.Inc()
			m.logger.Warn("skipping unreadable artifact",
				zap.String("url", u.URL), zap.String("path", u.Path), zap.Error(err))
			continue
		}
		if n == 0 {
			metrics.MergeSkips.Inc()
			m.logger.Warn("skipping empty artifact",
				zap.String("url", u.URL), zap.String("path", u.Path))
			continue
		}
		// pdfcpu bookmarks are 1-based; the bookmark targets the first page
		// of this unit, i.e. the page right after everything merged so far.
		bookmarks = append(bookmarks, pdfcpu.Bookmark{
			Title:    u.URL,
			PageFrom: offset + 1,
		})
		files = append(files, u.Path)
		offset += n
	}
	return files, bookmarks, offset
}
