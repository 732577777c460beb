// Package compact shrinks generated markup without changing what it renders.
package compact

import (
	"bytes"
	"io"
	"regexp"
	"slices"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	xhtml "golang.org/x/net/html"
)

const mediaTypeHTML = "text/html"

// Compactor transforms markup into a semantically equivalent, smaller form.
// Implementations must be deterministic and idempotent.
type Compactor interface {
	Compact(markup string) string
}

// HTML is the default Compactor.
type HTML struct {
	m *minify.M
}

var defaultHTMLMinifier = html.Minifier{
	KeepDocumentTags:        true,
	KeepEndTags:             true,
	KeepConditionalComments: false,
	KeepDefaultAttrVals:     false,
	KeepQuotes:              false,
	KeepWhitespace:          false,
}

// NewHTML returns an HTML compactor that also minifies inline CSS and JS.
func NewHTML() *HTML {
	m := minify.New()
	m.Add(mediaTypeHTML, &defaultHTMLMinifier)
	m.AddFunc("text/css", css.Minify)
	m.AddRegexp(regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$"), &js.Minifier{})
	return &HTML{m: m}
}

// Compact implements Compactor. If the markup cannot be minified it is
// returned unchanged.
func (c *HTML) Compact(markup string) string {
	sorted, err := sortClasses(markup)
	if err != nil {
		return markup
	}
	out, err := c.m.String(mediaTypeHTML, sorted)
	if err != nil {
		return markup
	}
	return out
}

// sortClasses rewrites every class attribute so its tokens are sorted and
// unique. All other tokens are emitted exactly as read.
func sortClasses(markup string) (string, error) {
	z := xhtml.NewTokenizer(strings.NewReader(markup))
	var buf bytes.Buffer
	buf.Grow(len(markup))

	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			if err := z.Err(); err != io.EOF {
				return "", err
			}
			return buf.String(), nil
		}

		if tt != xhtml.StartTagToken && tt != xhtml.SelfClosingTagToken {
			buf.Write(z.Raw())
			continue
		}

		raw := slices.Clone(z.Raw())
		tok := z.Token()
		if !rewriteClass(&tok) {
			buf.Write(raw)
			continue
		}
		buf.WriteString(tok.String())
	}
}

func rewriteClass(tok *xhtml.Token) bool {
	for i, a := range tok.Attr {
		if a.Namespace != "" || a.Key != "class" {
			continue
		}
		classes := strings.Fields(a.Val)
		slices.Sort(classes)
		classes = slices.Compact(classes)
		joined := strings.Join(classes, " ")
		if joined == a.Val {
			return false
		}
		tok.Attr[i].Val = joined
		return true
	}
	return false
}

// VisibleText returns the non-empty text runs of markup outside script and
// style elements, with whitespace collapsed to one space. Comments do not
// split a run; tags do.
func VisibleText(markup string) []string {
	z := xhtml.NewTokenizer(strings.NewReader(markup))
	var texts []string
	var run strings.Builder
	hidden := 0

	flush := func() {
		if t := strings.Join(strings.Fields(run.String()), " "); t != "" {
			texts = append(texts, t)
		}
		run.Reset()
	}

	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			flush()
			return texts
		case xhtml.StartTagToken:
			flush()
			if isHidden(z) {
				hidden++
			}
		case xhtml.EndTagToken:
			flush()
			if isHidden(z) && hidden > 0 {
				hidden--
			}
		case xhtml.SelfClosingTagToken, xhtml.DoctypeToken:
			flush()
		case xhtml.TextToken:
			if hidden == 0 {
				run.Write(z.Text())
			}
		}
	}
}

func isHidden(z *xhtml.Tokenizer) bool {
	name, _ := z.TagName()
	return string(name) == "script" || string(name) == "style"
}
