package render

import (
	"embed"
	"html/template"
	"path/filepath"

	"github.com/spf13/afero"

	pserrors "git.home.luguber.info/inful/pagesmith/internal/errors"
)

const (
	pageLayout  = "page.html"
	indexLayout = "index.html"
)

//go:embed assets/*
var assets embed.FS

// DefaultStylesheet returns the built-in stylesheet.
func DefaultStylesheet() []byte {
	b, err := assets.ReadFile("assets/style.css")
	if err != nil {
		panic(err) // embedded at compile time
	}
	return b
}

// Layouts are the parsed page and index templates.
type Layouts struct {
	page  *template.Template
	index *template.Template
}

// DefaultLayouts returns the built-in layouts.
func DefaultLayouts() (*Layouts, error) {
	return LoadLayouts(nil, "")
}

// LoadLayouts parses the layouts, preferring page.html and index.html from
// dir on fs over the built-in ones. A nil fs or empty dir uses the built-ins.
func LoadLayouts(fs afero.Fs, dir string) (*Layouts, error) {
	page, err := loadLayout(fs, dir, pageLayout)
	if err != nil {
		return nil, err
	}
	index, err := loadLayout(fs, dir, indexLayout)
	if err != nil {
		return nil, err
	}
	return &Layouts{page: page, index: index}, nil
}

func loadLayout(fs afero.Fs, dir, name string) (*template.Template, error) {
	origin := "assets/" + name
	text, err := assets.ReadFile(origin)
	if err != nil {
		return nil, pserrors.InternalError("missing built-in layout").WithContext(pserrors.ContextPath, origin).WithCause(err).Build()
	}

	if fs != nil && dir != "" {
		path := filepath.Join(dir, name)
		ok, err := afero.Exists(fs, path)
		if err != nil {
			return nil, pserrors.FileSystemError("stat", path, err)
		}
		if ok {
			if text, err = afero.ReadFile(fs, path); err != nil {
				return nil, pserrors.FileSystemError("read", path, err)
			}
			origin = path
		}
	}

	tpl, err := template.New(name).Option("missingkey=error").Parse(string(text))
	if err != nil {
		return nil, pserrors.RenderError("invalid layout").
			WithContext(pserrors.ContextPath, origin).
			WithCause(err).
			Build()
	}
	return tpl, nil
}
