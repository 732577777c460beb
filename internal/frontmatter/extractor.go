package frontmatter

import (
	pserrors "git.home.luguber.info/inful/pagesmith/internal/errors"
)

// Extracted is the result of splitting a document: the body with the header
// removed and the decoded metadata.
type Extracted struct {
	Body     string
	Header   string
	Metadata map[string]any
	Format   Format
}

// Extractor turns raw document text into body and metadata. Implementations
// must return a metadata-category error for malformed headers.
type Extractor interface {
	Extract(raw string) (Extracted, error)
}

// Parser is the default Extractor. It understands YAML and TOML headers.
type Parser struct{}

// NewParser returns the default Extractor.
func NewParser() *Parser { return &Parser{} }

// Extract implements Extractor.
func (p *Parser) Extract(raw string) (Extracted, error) {
	header, body, format, _, err := Split([]byte(raw))
	if err != nil {
		return Extracted{}, pserrors.MetadataError(err).Build()
	}

	fields, err := Parse(header, format)
	if err != nil {
		return Extracted{}, pserrors.MetadataError(err).
			WithContext("format", string(format)).
			Build()
	}

	return Extracted{
		Body:     string(body),
		Header:   string(header),
		Metadata: fields,
		Format:   format,
	}, nil
}
