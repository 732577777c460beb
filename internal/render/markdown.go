// Package render turns loaded documents into page and index markup.
package render

import (
	"bytes"
	"cmp"
	"html/template"
	"slices"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	pserrors "git.home.luguber.info/inful/pagesmith/internal/errors"
	"git.home.luguber.info/inful/pagesmith/internal/source"
)

// Renderer produces markup for documents. Implementations must be safe for
// concurrent use.
type Renderer interface {
	Page(site Site, doc source.Document) (string, error)
	Index(site Site, docs []source.Document) (string, error)
}

// Markdown renders document bodies as Markdown into the layouts.
type Markdown struct {
	md      goldmark.Markdown
	layouts *Layouts
}

// NewMarkdown creates a Markdown renderer. Nil layouts selects the built-ins.
func NewMarkdown(layouts *Layouts) (*Markdown, error) {
	if layouts == nil {
		var err error
		if layouts, err = DefaultLayouts(); err != nil {
			return nil, err
		}
	}
	return &Markdown{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
		layouts: layouts,
	}, nil
}

type pageData struct {
	Site        Site
	Slug        string
	Title       string
	Description string
	Date        time.Time
	Tags        []string
	Content     template.HTML
}

type indexEntry struct {
	Title       string
	Href        string
	Description string
	weight      int
}

type indexData struct {
	Site    Site
	Entries []indexEntry
}

// Page implements Renderer.
func (r *Markdown) Page(site Site, doc source.Document) (string, error) {
	meta, err := MetaFor(doc)
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	if err := r.md.Convert([]byte(doc.Body), &body); err != nil {
		return "", pserrors.RenderError("markdown conversion failed").
			WithContext(pserrors.ContextDocument, doc.Origin).
			WithCause(err).
			Build()
	}

	data := pageData{
		Site:        site,
		Slug:        doc.Slug,
		Title:       meta.Title,
		Description: meta.Description,
		Date:        meta.Date,
		Tags:        meta.Tags,
		Content:     template.HTML(body.String()), // #nosec G203 -- document HTML is author-controlled
	}

	var out bytes.Buffer
	if err := r.layouts.page.Execute(&out, data); err != nil {
		return "", pserrors.RenderError("page layout failed").
			WithContext(pserrors.ContextDocument, doc.Origin).
			WithCause(err).
			Build()
	}
	return out.String(), nil
}

// Index implements Renderer. Drafts are left out; entries are ordered by
// weight, then title, then slug.
func (r *Markdown) Index(site Site, docs []source.Document) (string, error) {
	entries := make([]indexEntry, 0, len(docs))
	for _, doc := range docs {
		meta, err := MetaFor(doc)
		if err != nil {
			return "", err
		}
		if meta.Draft {
			continue
		}
		entries = append(entries, indexEntry{
			Title:       meta.Title,
			Href:        doc.OutputName(),
			Description: meta.Description,
			weight:      meta.Weight,
		})
	}

	slices.SortStableFunc(entries, func(a, b indexEntry) int {
		return cmp.Or(
			cmp.Compare(a.weight, b.weight),
			cmp.Compare(a.Title, b.Title),
			cmp.Compare(a.Href, b.Href),
		)
	})

	var out bytes.Buffer
	if err := r.layouts.index.Execute(&out, indexData{Site: site, Entries: entries}); err != nil {
		return "", pserrors.RenderError("index layout failed").WithCause(err).Build()
	}
	return out.String(), nil
}
