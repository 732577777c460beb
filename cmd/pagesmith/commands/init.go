package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/pagesmith/internal/config"
	pserrors "git.home.luguber.info/inful/pagesmith/internal/errors"
	"git.home.luguber.info/inful/pagesmith/internal/frontmatter"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite an existing configuration file"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	cfgPath := root.Config
	if cfgPath == "" {
		cfgPath = config.DefaultFileName
	}
	if !filepath.IsAbs(cfgPath) {
		cfgPath = filepath.Join(root.Root, cfgPath)
	}
	return RunInit(g.out(), root.Root, cfgPath, i.Force)
}

const samplePageBody = "# Welcome\n\nEdit *pages/welcome.md* and run `pagesmith build`.\n"

func samplePage() (string, error) {
	page, err := frontmatter.Compose(map[string]any{
		"title":       "Welcome",
		"description": "The first page of a new site.",
		"tags":        []string{"intro"},
		"weight":      1,
	}, []byte(samplePageBody), frontmatter.Style{Newline: "\n"})
	if err != nil {
		return "", pserrors.InternalError("failed to compose sample page").WithCause(err).Build()
	}
	return string(page), nil
}

const sampleSiteConfig = `{
  "title": "My Site",
  "description": "Built with pagesmith",
  "language": "en"
}
`

// RunInit writes the configuration file and scaffolds the default project
// layout under root. Existing project files are never replaced.
func RunInit(out io.Writer, root, configPath string, force bool) error {
	_, _ = fmt.Fprintln(out, "Initializing pagesmith project")
	_, _ = fmt.Fprintf(out, "Writing configuration to %s\n", configPath)
	if err := config.Init(configPath, force); err != nil {
		_, _ = fmt.Fprintln(out, "Initialization failed")
		return err
	}

	defaults := config.Default()
	defaults.Resolve(root)

	for _, dir := range []string{defaults.Paths.Pages, defaults.Paths.Static} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return pserrors.FileSystemError("mkdir", dir, err)
		}
	}

	page, err := samplePage()
	if err != nil {
		return err
	}

	scaffold := []struct {
		path    string
		content string
	}{
		{defaults.Paths.Config, sampleSiteConfig},
		{filepath.Join(defaults.Paths.Pages, "welcome.md"), page},
	}
	for _, f := range scaffold {
		created, err := writeIfMissing(f.path, f.content)
		if err != nil {
			return err
		}
		if created {
			_, _ = fmt.Fprintf(out, "Created %s\n", f.path)
		}
	}

	_, _ = fmt.Fprintln(out, "initialized successfully")
	return nil
}

func writeIfMissing(path, content string) (bool, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, pserrors.FileSystemError("write", path, err)
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return false, pserrors.FileSystemError("write", path, err)
	}
	if err := f.Close(); err != nil {
		return false, pserrors.FileSystemError("write", path, err)
	}
	return true, nil
}
