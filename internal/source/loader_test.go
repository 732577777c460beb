package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/inful/mdfp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pserrors "git.home.luguber.info/inful/pagesmith/internal/errors"
	"git.home.luguber.info/inful/pagesmith/internal/frontmatter"
)

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func TestLoadAll_DerivesNamesAndMetadata(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "pages/Getting-Started.md", "---\ntitle: Intro\n---\n# Hello\n")
	writeFile(t, fs, "pages/FAQ.md", "Plain body\n")

	mtime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, fs.Chtimes("pages/FAQ.md", mtime, mtime))

	docs, err := NewLoader(fs, nil).LoadAll(context.Background(), "pages")
	require.NoError(t, err)
	require.Len(t, docs, 2)

	// listing order is lexical
	faq, intro := docs[0], docs[1]

	assert.Equal(t, "FAQ.md", faq.Origin)
	assert.Equal(t, "faq", faq.Slug)
	assert.Equal(t, "FAQ", faq.Title)
	assert.Equal(t, "Plain body\n", faq.Body)
	assert.Empty(t, faq.Metadata)
	assert.True(t, faq.ModifiedAt.Equal(mtime))
	assert.Equal(t, "faq.html", faq.OutputName())

	assert.Equal(t, "Getting-Started.md", intro.Origin)
	assert.Equal(t, "getting-started", intro.Slug)
	assert.Equal(t, "Getting Started", intro.Title)
	assert.Equal(t, "# Hello\n", intro.Body)
	assert.Equal(t, map[string]any{"title": "Intro"}, intro.Metadata)
	assert.Equal(t, mdfp.CalculateFingerprintFromParts("title: Intro\n", "# Hello\n"), intro.Fingerprint)
}

func TestLoadAll_EmptyDirectory(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("pages", 0o755))

	docs, err := NewLoader(fs, nil).LoadAll(context.Background(), "pages")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestLoadAll_MissingDirectoryIsFileSystemError(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := NewLoader(fs, nil).LoadAll(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, pserrors.HasCategory(err, pserrors.CategoryFileSystem))

	op, _ := pserrors.ContextValue(err, pserrors.ContextOperation)
	assert.Equal(t, "list", op)
	path, _ := pserrors.ContextValue(err, pserrors.ContextPath)
	assert.Equal(t, "nope", path)
}

func TestLoadAll_MalformedMetadataNamesDocument(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "pages/Good.md", "fine\n")
	writeFile(t, fs, "pages/Broken.md", "---\ntitle: [unclosed\n---\nbody\n")

	docs, err := NewLoader(fs, nil).LoadAll(context.Background(), "pages")
	require.Error(t, err)
	assert.Nil(t, docs)
	assert.True(t, pserrors.HasCategory(err, pserrors.CategoryMetadata))

	doc, ok := pserrors.ContextValue(err, pserrors.ContextDocument)
	require.True(t, ok)
	assert.Equal(t, "Broken.md", doc)
}

func TestLoadAll_UnclosedHeaderIsMetadataError(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "pages/a.md", "---\ntitle: x\nno closing line\n")

	_, err := NewLoader(fs, nil).LoadAll(context.Background(), "pages")
	require.Error(t, err)
	assert.True(t, pserrors.HasCategory(err, pserrors.CategoryMetadata))
	assert.ErrorIs(t, err, frontmatter.ErrMissingClosingDelimiter)
}

func TestLoadAll_SlugCollision(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "pages/About.md", "a")
	writeFile(t, fs, "pages/about.md", "b")

	_, err := NewLoader(fs, nil).LoadAll(context.Background(), "pages")
	require.Error(t, err)
	assert.True(t, pserrors.HasCategory(err, pserrors.CategoryValidation))

	slug, _ := pserrors.ContextValue(err, "slug")
	assert.Equal(t, "about", slug)
	origins, _ := pserrors.ContextValue(err, "documents")
	assert.Equal(t, "About.md, about.md", origins)
}

func TestLoadAll_SkipsSubdirectories(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "pages/index.md", "home")
	writeFile(t, fs, "pages/drafts/wip.md", "later")

	docs, err := NewLoader(fs, nil).LoadAll(context.Background(), "pages")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "index", docs[0].Slug)
}

func TestLoadAll_NoExtension(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "pages/README", "x")

	docs, err := NewLoader(fs, nil).LoadAll(context.Background(), "pages")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "readme", docs[0].Slug)
	assert.Equal(t, "README", docs[0].Title)
}

func TestLoadAll_ReadFailureIsFileSystemError(t *testing.T) {
	base := afero.NewMemMapFs()
	writeFile(t, base, "pages/a.md", "a")
	writeFile(t, base, "pages/b.md", "b")

	fs := &failingOpenFs{Fs: base, fail: filepath.Join("pages", "b.md")}

	_, err := NewLoader(fs, nil).LoadAll(context.Background(), "pages")
	require.Error(t, err)
	assert.True(t, pserrors.HasCategory(err, pserrors.CategoryFileSystem))
	op, _ := pserrors.ContextValue(err, pserrors.ContextOperation)
	assert.Equal(t, "read", op)
}

func TestLoadAll_ConcurrencyLimitStillLoadsEverything(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, n := range []string{"a.md", "b.md", "c.md", "d.md", "e.md"} {
		writeFile(t, fs, "pages/"+n, n)
	}

	docs, err := NewLoader(fs, nil).WithConcurrency(2).LoadAll(context.Background(), "pages")
	require.NoError(t, err)
	require.Len(t, docs, 5)
	for i, want := range []string{"a", "b", "c", "d", "e"} {
		assert.Equal(t, want, docs[i].Slug)
	}
}

type stubExtractor struct{ err error }

func (s stubExtractor) Extract(raw string) (frontmatter.Extracted, error) {
	if s.err != nil {
		return frontmatter.Extracted{}, s.err
	}
	return frontmatter.Extracted{Body: raw}, nil
}

func TestLoadAll_PlainExtractorErrorIsClassifiedAsMetadata(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "pages/x.md", "x")

	_, err := NewLoader(fs, stubExtractor{err: errors.New("bad header")}).LoadAll(context.Background(), "pages")
	require.Error(t, err)
	assert.True(t, pserrors.HasCategory(err, pserrors.CategoryMetadata))
	doc, _ := pserrors.ContextValue(err, pserrors.ContextDocument)
	assert.Equal(t, "x.md", doc)
}

func TestLoadAll_CancelledContext(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "pages/x.md", "x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLoader(fs, nil).LoadAll(ctx, "pages")
	require.ErrorIs(t, err, context.Canceled)
}

// failingOpenFs fails Open for one path so ReadFile errors after Stat succeeds.
type failingOpenFs struct {
	afero.Fs
	fail string
}

func (f *failingOpenFs) Open(name string) (afero.File, error) {
	if filepath.Clean(name) == f.fail {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return f.Fs.Open(name)
}
