// Package output persists compacted markup, the stylesheet and mirrored static
// assets into the build directory.
package output

import (
	"context"
	"slices"

	"github.com/spf13/afero"

	"git.home.luguber.info/inful/pagesmith/internal/compact"
	pserrors "git.home.luguber.info/inful/pagesmith/internal/errors"
)

const (
	IndexName      = "index.html"
	StylesheetName = "style.css"

	filePerm = 0o644
	dirPerm  = 0o755
)

// Page is rendered markup for one document.
type Page struct {
	Slug   string
	Markup string
}

// FileName is the page's output file name.
func (p Page) FileName() string { return p.Slug + ".html" }

// Index is the rendered listing page.
type Index struct {
	Markup string
}

// Stylesheet is the site stylesheet, written without transformation.
type Stylesheet struct {
	Bytes []byte
}

// Writer writes build artifacts below buildDir.
type Writer struct {
	fs          afero.Fs
	buildDir    string
	staticDir   string
	compactor   compact.Compactor
	concurrency int
	verify      bool
}

// NewWriter creates a Writer. staticDir may be empty to disable mirroring.
func NewWriter(fs afero.Fs, buildDir, staticDir string, compactor compact.Compactor) *Writer {
	if compactor == nil {
		compactor = compact.NewHTML()
	}
	return &Writer{
		fs:        fs,
		buildDir:  buildDir,
		staticDir: staticDir,
		compactor: compactor,
	}
}

// WithConcurrency caps parallel asset copies (0 = unbounded).
func (w *Writer) WithConcurrency(n int) *Writer {
	w.concurrency = n
	return w
}

// WithVerify makes page and index writes fail when compaction changes the
// visible text of the markup.
func (w *Writer) WithVerify(verify bool) *Writer {
	w.verify = verify
	return w
}

// WritePage compacts the page markup and writes <buildDir>/<slug>.html,
// replacing any existing file.
func (w *Writer) WritePage(ctx context.Context, page Page) error {
	return w.writeMarkup(ctx, page.FileName(), page.Markup)
}

// WriteIndex compacts the index markup and writes <buildDir>/index.html.
func (w *Writer) WriteIndex(ctx context.Context, index Index) error {
	return w.writeMarkup(ctx, IndexName, index.Markup)
}

// WriteStylesheet writes the stylesheet bytes unchanged to <buildDir>/style.css.
func (w *Writer) WriteStylesheet(ctx context.Context, sheet Stylesheet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return w.writeFile(w.path(StylesheetName), sheet.Bytes)
}

func (w *Writer) writeMarkup(ctx context.Context, name, markup string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := w.path(name)
	compacted := w.compactor.Compact(markup)

	if w.verify && !slices.Equal(compact.VisibleText(markup), compact.VisibleText(compacted)) {
		return pserrors.BuildError("compaction changed visible text").
			WithContext(pserrors.ContextPath, target).
			Build()
	}

	return w.writeFile(target, []byte(compacted))
}

func (w *Writer) writeFile(target string, data []byte) error {
	if err := afero.WriteFile(w.fs, target, data, filePerm); err != nil {
		return pserrors.FileSystemError("write", target, err)
	}
	return nil
}
