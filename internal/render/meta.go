package render

import (
	"time"

	pserrors "git.home.luguber.info/inful/pagesmith/internal/errors"
	"git.home.luguber.info/inful/pagesmith/internal/frontmatter"
	"git.home.luguber.info/inful/pagesmith/internal/source"
)

// PageMeta is the subset of document metadata the layouts understand.
type PageMeta struct {
	Title       string    `yaml:"title"`
	Description string    `yaml:"description"`
	Date        time.Time `yaml:"date"`
	Tags        []string  `yaml:"tags"`
	Draft       bool      `yaml:"draft"`
	Weight      int       `yaml:"weight"`
}

// MetaFor decodes the metadata of doc. The file-derived title is used when
// the metadata has none.
func MetaFor(doc source.Document) (PageMeta, error) {
	var meta PageMeta
	if err := frontmatter.Decode(doc.Metadata, &meta); err != nil {
		return PageMeta{}, pserrors.MetadataError(err).
			WithContext(pserrors.ContextDocument, doc.Origin).
			Build()
	}
	if meta.Title == "" {
		meta.Title = doc.Title
	}
	return meta, nil
}
