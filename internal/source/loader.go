// Package source scans the source directory and loads every document in it
// concurrently: stat, read, metadata extraction and name derivation.
package source

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/inful/mdfp"
	"github.com/spf13/afero"

	pserrors "git.home.luguber.info/inful/pagesmith/internal/errors"
	"git.home.luguber.info/inful/pagesmith/internal/fanout"
	"git.home.luguber.info/inful/pagesmith/internal/frontmatter"
	"git.home.luguber.info/inful/pagesmith/internal/logfields"
	"git.home.luguber.info/inful/pagesmith/internal/naming"
	"git.home.luguber.info/inful/pagesmith/internal/observability"
)

// Loader builds the in-memory document set from a flat source directory.
type Loader struct {
	fs          afero.Fs
	extractor   frontmatter.Extractor
	concurrency int
	now         func() time.Time
}

// NewLoader creates a Loader reading from fs and splitting documents with extractor.
func NewLoader(fs afero.Fs, extractor frontmatter.Extractor) *Loader {
	if extractor == nil {
		extractor = frontmatter.NewParser()
	}
	return &Loader{
		fs:        fs,
		extractor: extractor,
		now:       time.Now,
	}
}

// WithConcurrency caps the number of files processed at once (0 = unbounded).
func (l *Loader) WithConcurrency(n int) *Loader {
	l.concurrency = n
	return l
}

// WithClock overrides the time source used when a file has no mtime.
func (l *Loader) WithClock(now func() time.Time) *Loader {
	l.now = now
	return l
}

// LoadAll lists dir and loads every file in it. The result follows listing
// order. Any failure aborts the whole load: listing, stat and read failures
// are filesystem errors, malformed headers are metadata errors naming the
// document, and two files sharing a slug are a validation error.
func (l *Loader) LoadAll(ctx context.Context, dir string) ([]Document, error) {
	entries, err := afero.ReadDir(l.fs, dir)
	if err != nil {
		return nil, pserrors.FileSystemError("list", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			observability.DebugContext(ctx, "Skipping directory in source dir", logfields.Path(filepath.Join(dir, e.Name())))
			continue
		}
		names = append(names, e.Name())
	}

	observability.InfoContext(ctx, "Discovered source documents", logfields.Path(dir), logfields.Count(len(names)))
	for _, n := range names {
		observability.DebugContext(ctx, "Source document", logfields.Document(n))
	}

	if err := checkSlugCollisions(names); err != nil {
		return nil, err
	}

	return fanout.Map(ctx, names, l.concurrency, func(ctx context.Context, _ int, name string) (Document, error) {
		return l.load(ctx, dir, name)
	})
}

func (l *Loader) load(ctx context.Context, dir, name string) (Document, error) {
	path := filepath.Join(dir, name)

	info, err := l.fs.Stat(path)
	if err != nil {
		return Document{}, pserrors.FileSystemError("stat", path, err)
	}
	modifiedAt := info.ModTime()
	if modifiedAt.IsZero() {
		modifiedAt = l.now()
	}

	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	raw, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return Document{}, pserrors.FileSystemError("read", path, err)
	}

	extracted, err := l.extractor.Extract(string(raw))
	if err != nil {
		if classified, ok := pserrors.AsClassified(err); ok {
			return Document{}, classified.WithContext(pserrors.ContextDocument, name)
		}
		return Document{}, pserrors.MetadataError(err).WithContext(pserrors.ContextDocument, name).Build()
	}

	metadata := extracted.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	return Document{
		Origin:      name,
		Slug:        naming.Slug(name),
		Title:       naming.Title(name),
		Body:        extracted.Body,
		ModifiedAt:  modifiedAt,
		Metadata:    metadata,
		Fingerprint: mdfp.CalculateFingerprintFromParts(extracted.Header, extracted.Body),
	}, nil
}

func checkSlugCollisions(names []string) error {
	bySlug := make(map[string][]string, len(names))
	for _, n := range names {
		s := naming.Slug(n)
		bySlug[s] = append(bySlug[s], n)
	}

	for _, n := range names {
		s := naming.Slug(n)
		if origins := bySlug[s]; len(origins) > 1 {
			slices.Sort(origins)
			return pserrors.ValidationError("slug collision").
				WithContext("slug", s).
				WithContext("documents", strings.Join(origins, ", ")).
				Build()
		}
	}
	return nil
}
