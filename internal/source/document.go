package source

import "time"

// Document is one loaded source file. It is created by Loader and never
// mutated afterwards.
type Document struct {
	// Origin is the file name including extension; it identifies the
	// document in errors and logs.
	Origin string
	// Slug is the lowercase, extension-stripped output base name and link target.
	Slug string
	// Title is derived from Origin ("Getting-Started.md" -> "Getting Started").
	Title string
	// Body is the content with the metadata header removed.
	Body string
	// ModifiedAt is the file's mtime, or the load time if unavailable.
	ModifiedAt time.Time
	// Metadata is the decoded header; its shape is opaque to the pipeline.
	Metadata map[string]any
	// Fingerprint identifies the document content (header and body).
	Fingerprint string
}

// OutputName is the file name the document is published under.
func (d Document) OutputName() string {
	return d.Slug + ".html"
}
