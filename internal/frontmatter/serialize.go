package frontmatter

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// SerializeYAML serializes a frontmatter map into YAML bytes (without delimiters).
//
// yaml.v3 emits map keys in sorted order, so output is deterministic. The
// newline style from Style is applied (defaults to \n). An empty map yields
// an empty slice.
func SerializeYAML(fields map[string]any, style Style) ([]byte, error) {
	if len(fields) == 0 {
		return []byte{}, nil
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fields); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}

	out := buf.Bytes()
	if style.Newline != "" && style.Newline != "\n" {
		out = bytes.ReplaceAll(out, []byte("\n"), []byte(style.Newline))
	}
	return out, nil
}

// Compose builds a YAML-fronted document from fields and body.
func Compose(fields map[string]any, body []byte, style Style) ([]byte, error) {
	if len(fields) == 0 {
		return body, nil
	}
	nl := style.Newline
	if nl == "" {
		nl = "\n"
	}
	header, err := SerializeYAML(fields, style)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(header)+len(body)+2*(3+len(nl)))
	out = append(out, "---"+nl...)
	out = append(out, header...)
	out = append(out, "---"+nl...)
	out = append(out, body...)
	return out, nil
}
