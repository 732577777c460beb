// Package naming derives the canonical identifiers of a source document from
// its file name: the slug used for output files and links, and the display title.
package naming

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// StripExt removes the final extension (the last '.' and everything after it).
// A leading dot does not start an extension, so ".env" is returned unchanged.
func StripExt(name string) string {
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		return name[:i]
	}
	return name
}

// Slug returns the lowercase, extension-stripped identifier for name.
// "Getting-Started.md" becomes "getting-started" and "a.b.md" becomes "a.b".
func Slug(name string) string {
	// A cases.Caser is stateful, so each call gets its own.
	return cases.Lower(language.Und).String(norm.NFC.String(StripExt(name)))
}

// Title returns the display title for name: extension stripped and every '-'
// replaced by a space. Case is preserved.
func Title(name string) string {
	return strings.ReplaceAll(StripExt(name), "-", " ")
}
