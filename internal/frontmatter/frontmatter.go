// Package frontmatter splits a source document into its metadata header and
// body. YAML headers are delimited by "---" lines and TOML headers by "+++"
// lines, following the conventions of common static-site generators.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format identifies the header syntax of a document.
type Format string

const (
	FormatNone Format = ""
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

var delimiters = []struct {
	marker string
	format Format
}{
	{"---", FormatYAML},
	{"+++", FormatTOML},
}

// Style captures formatting details needed for stable rewriting.
type Style struct {
	Newline            string
	HasTrailingNewline bool
}

// ErrMissingClosingDelimiter indicates the document started with a header
// delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("frontmatter start delimiter found but closing delimiter is missing")

// Split separates the header from the body.
//
// If the document does not start with a header delimiter, format is FormatNone
// and body is the full input. A closing delimiter on the last line without a
// trailing newline is accepted and yields an empty body.
func Split(content []byte) (header []byte, body []byte, format Format, style Style, err error) {
	style = detectStyle(content)
	nl := style.Newline

	for _, d := range delimiters {
		open := []byte(d.marker + nl)
		if !bytes.HasPrefix(content, open) {
			continue
		}

		rest := content[len(open):]
		closeLine := []byte(d.marker + nl)
		if bytes.HasPrefix(rest, closeLine) {
			return []byte{}, rest[len(closeLine):], d.format, style, nil
		}
		if bytes.Equal(rest, []byte(d.marker)) {
			return []byte{}, []byte{}, d.format, style, nil
		}

		closeSeq := []byte(nl + d.marker + nl)
		if idx := bytes.Index(rest, closeSeq); idx >= 0 {
			return rest[:idx+len(nl)], rest[idx+len(closeSeq):], d.format, style, nil
		}

		closeAtEOF := []byte(nl + d.marker)
		if bytes.HasSuffix(rest, closeAtEOF) {
			end := len(rest) - len(closeAtEOF)
			return rest[:end+len(nl)], []byte{}, d.format, style, nil
		}
		return nil, nil, FormatNone, style, ErrMissingClosingDelimiter
	}

	return nil, content, FormatNone, style, nil
}

// Parse decodes a raw header (without delimiters) in the given format into a map.
// An empty header yields an empty, non-nil map.
func Parse(header []byte, format Format) (map[string]any, error) {
	switch format {
	case FormatNone:
		return map[string]any{}, nil
	case FormatYAML:
		return ParseYAML(header)
	case FormatTOML:
		return ParseTOML(header)
	default:
		return nil, fmt.Errorf("unsupported frontmatter format %q", format)
	}
}

// ParseYAML parses raw YAML frontmatter (without --- delimiters) into a map.
func ParseYAML(header []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(header)) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(header, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// ParseTOML parses raw TOML frontmatter (without +++ delimiters) into a map.
func ParseTOML(header []byte) (map[string]any, error) {
	fields := map[string]any{}
	if len(bytes.TrimSpace(header)) == 0 {
		return fields, nil
	}
	if err := toml.Unmarshal(header, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func detectStyle(content []byte) Style {
	newline := "\n"
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			newline = "\r\n"
			break
		}
		if content[i] == '\n' {
			break
		}
	}

	return Style{
		Newline:            newline,
		HasTrailingNewline: len(content) > 0 && content[len(content)-1] == '\n',
	}
}
