package output

import (
	"context"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagesmith/internal/compact"
	pserrors "git.home.luguber.info/inful/pagesmith/internal/errors"
)

// markingCompactor makes compaction observable in written files.
type markingCompactor struct{}

func (markingCompactor) Compact(markup string) string { return "<!--c-->" + markup }

// lossyCompactor drops everything after the first tag.
type lossyCompactor struct{}

func (lossyCompactor) Compact(markup string) string {
	if i := strings.Index(markup, ">"); i >= 0 {
		return markup[:i+1]
	}
	return markup
}

func newTestWriter(t *testing.T, c compact.Compactor) (afero.Fs, *Writer) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/site/build", 0o755))
	require.NoError(t, fs.MkdirAll("/site/static", 0o755))
	return fs, NewWriter(fs, "/site/build", "/site/static", c)
}

func readString(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	b, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(b)
}

func TestWritePage_CompactsAndWrites(t *testing.T) {
	fs, w := newTestWriter(t, markingCompactor{})

	require.NoError(t, w.WritePage(context.Background(), Page{Slug: "getting-started", Markup: "<p>hi</p>"}))
	assert.Equal(t, "<!--c--><p>hi</p>", readString(t, fs, "/site/build/getting-started.html"))
}

func TestWritePage_OverwritesExisting(t *testing.T) {
	fs, w := newTestWriter(t, markingCompactor{})
	require.NoError(t, afero.WriteFile(fs, "/site/build/faq.html", []byte("a much longer stale file body"), 0o644))

	require.NoError(t, w.WritePage(context.Background(), Page{Slug: "faq", Markup: "new"}))
	assert.Equal(t, "<!--c-->new", readString(t, fs, "/site/build/faq.html"))
}

func TestWriteIndex_UsesSameCompaction(t *testing.T) {
	fs, w := newTestWriter(t, markingCompactor{})

	require.NoError(t, w.WriteIndex(context.Background(), Index{Markup: "<ul></ul>"}))
	assert.Equal(t, "<!--c--><ul></ul>", readString(t, fs, "/site/build/index.html"))
}

func TestWriteStylesheet_WritesRawBytes(t *testing.T) {
	fs, w := newTestWriter(t, markingCompactor{})
	css := []byte("body {\n  margin: 0;\n}\n")

	require.NoError(t, w.WriteStylesheet(context.Background(), Stylesheet{Bytes: css}))
	assert.Equal(t, string(css), readString(t, fs, "/site/build/style.css"))
}

func TestWrite_FailureIsFileSystemError(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, base.MkdirAll("/site/build", 0o755))
	w := NewWriter(afero.NewReadOnlyFs(base), "/site/build", "", markingCompactor{})

	err := w.WritePage(context.Background(), Page{Slug: "a", Markup: "x"})
	require.Error(t, err)
	assert.True(t, pserrors.HasCategory(err, pserrors.CategoryFileSystem))
	path, _ := pserrors.ContextValue(err, pserrors.ContextPath)
	assert.Equal(t, "/site/build/a.html", path)
	op, _ := pserrors.ContextValue(err, pserrors.ContextOperation)
	assert.Equal(t, "write", op)

	err = w.WriteStylesheet(context.Background(), Stylesheet{Bytes: []byte("x")})
	assert.True(t, pserrors.HasCategory(err, pserrors.CategoryFileSystem))
}

func TestWrite_CancelledContext(t *testing.T) {
	fs, w := newTestWriter(t, markingCompactor{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, w.WritePage(ctx, Page{Slug: "a", Markup: "x"}), context.Canceled)
	exists, err := afero.Exists(fs, "/site/build/a.html")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestVerify_RejectsLossyCompaction(t *testing.T) {
	fs, w := newTestWriter(t, lossyCompactor{})
	w.WithVerify(true)

	err := w.WritePage(context.Background(), Page{Slug: "a", Markup: "<p>kept</p><p>dropped</p>"})
	require.Error(t, err)
	assert.True(t, pserrors.HasCategory(err, pserrors.CategoryBuild))
	path, _ := pserrors.ContextValue(err, pserrors.ContextPath)
	assert.Equal(t, "/site/build/a.html", path)

	exists, err := afero.Exists(fs, "/site/build/a.html")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestVerify_AcceptsRealCompactor(t *testing.T) {
	fs, w := newTestWriter(t, compact.NewHTML())
	w.WithVerify(true)

	markup := "<!doctype html>\n<html><head><title>T</title></head>\n<body>\n  <p>one   two</p>\n</body></html>\n"
	require.NoError(t, w.WriteIndex(context.Background(), Index{Markup: markup}))
	assert.Less(t, len(readString(t, fs, "/site/build/index.html")), len(markup))
}

func TestVerify_DisabledAllowsLossyCompaction(t *testing.T) {
	fs, w := newTestWriter(t, lossyCompactor{})

	require.NoError(t, w.WritePage(context.Background(), Page{Slug: "a", Markup: "<p>kept</p><p>dropped</p>"}))
	assert.Equal(t, "<p>", readString(t, fs, "/site/build/a.html"))
}
