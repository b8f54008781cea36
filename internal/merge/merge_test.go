package merge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// withPageCounts replaces the merger's page counting with canned values.
// A count of -1 simulates an unreadable artifact.
func withPageCounts(counts map[string]int) *PDFMerger {
	m := NewPDFMerger(zap.NewNop())
	m.pageCount = func(path string) (int, error) {
		n, ok := counts[path]
		if !ok || n < 0 {
			return 0, errors.New("unreadable artifact")
		}
		return n, nil
	}
	return m
}

func TestPlanBookmarkOffsets(t *testing.T) {
	t.Parallel()

	m := withPageCounts(map[string]int{
		"a.pdf": 2,
		"b.pdf": -1,
		"c.pdf": 3,
	})
	units := []Unit{
		{URL: "https://x.com/a", Path: "a.pdf"},
		{URL: "https://x.com/b", Path: "b.pdf"},
		{URL: "https://x.com/c", Path: "c.pdf"},
	}

	files, bookmarks, total := m.plan(units)

	require.Equal(t, []string{"a.pdf", "c.pdf"}, files,
		"the unreadable artifact is absent, not a placeholder")
	require.Equal(t, 5, total)
	require.Len(t, bookmarks, 2)
	require.Equal(t, "https://x.com/a", bookmarks[0].Title)
	require.Equal(t, 1, bookmarks[0].PageFrom)
	require.Equal(t, "https://x.com/c", bookmarks[1].Title)
	require.Equal(t, 3, bookmarks[1].PageFrom,
		"the skipped artifact must not advance the page offset")
}

func TestPlanZeroPageArtifactSkipped(t *testing.T) {
	t.Parallel()

	m := withPageCounts(map[string]int{
		"a.pdf": 0,
		"b.pdf": 4,
	})
	units := []Unit{
		{URL: "https://x.com/a", Path: "a.pdf"},
		{URL: "https://x.com/b", Path: "b.pdf"},
	}

	files, bookmarks, total := m.plan(units)
	require.Equal(t, []string{"b.pdf"}, files)
	require.Equal(t, 4, total)
	require.Len(t, bookmarks, 1)
	require.Equal(t, 1, bookmarks[0].PageFrom)
}

func TestMergeNothingReadable(t *testing.T) {
	t.Parallel()

	m := withPageCounts(nil)
	_, err := m.Merge([]Unit{
		{URL: "https://x.com/a", Path: "missing.pdf"},
	}, t.TempDir()+"/out.pdf")
	require.ErrorIs(t, err, ErrNothingToMerge)
}

func TestMergeEmptyInput(t *testing.T) {
	t.Parallel()

	m := NewPDFMerger(zap.NewNop())
	_, err := m.Merge(nil, t.TempDir()+"/out.pdf")
	require.ErrorIs(t, err, ErrNothingToMerge)
}
