// Package config loads pagesmith.yaml, the tool's own settings. The site's
// config.json is not handled here; it is passed to the renderer untouched.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	pserrors "git.home.luguber.info/inful/pagesmith/internal/errors"
)

// DefaultFileName is the configuration file looked up in the project root.
const DefaultFileName = "pagesmith.yaml"

// Config is the tool configuration.
type Config struct {
	Paths   PathsConfig   `yaml:"paths"`
	Build   BuildConfig   `yaml:"build"`
	Metrics MetricsConfig `yaml:"metrics,omitempty"`
	History HistoryConfig `yaml:"history,omitempty"`
	Notify  NotifyConfig  `yaml:"notify,omitempty"`
}

// PathsConfig locates the project's inputs and outputs. Relative paths are
// resolved against the project root.
type PathsConfig struct {
	Pages      string `yaml:"pages"`
	Static     string `yaml:"static"` // empty disables static mirroring
	Build      string `yaml:"build"`
	Layouts    string `yaml:"layouts"`
	Config     string `yaml:"config"`
	Stylesheet string `yaml:"stylesheet"`
}

// BuildConfig tunes the build pipeline.
type BuildConfig struct {
	Concurrency      int  `yaml:"concurrency"` // 0 = unbounded
	Staged           bool `yaml:"staged"`
	VerifyCompaction bool `yaml:"verify_compaction"`
}

// MetricsConfig enables the node_exporter textfile dump.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// HistoryConfig enables the SQLite build ledger.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// NotifyConfig publishes a JSON event per finished build to NATS.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"` // default pagesmith.builds
}

// Load reads the configuration for the project at root. configPath may be
// empty (pagesmith.yaml in root) or relative to root. A missing file yields
// the defaults. Environment variables are expanded after loading .env files
// from root. The returned paths are absolute.
func Load(root, configPath string) (*Config, error) {
	if err := loadEnvFiles(root); err != nil {
		return nil, err
	}

	cfg := Default()

	path := resolve(root, configPath)
	if configPath == "" {
		path = filepath.Join(root, DefaultFileName)
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && configPath == "":
		// optional
	case err != nil:
		return nil, pserrors.ConfigError("failed to read config file").
			WithContext(pserrors.ContextPath, path).
			WithCause(err).
			Build()
	default:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, pserrors.ConfigError("failed to parse config file").
				WithContext(pserrors.ContextPath, path).
				WithCause(err).
				Build()
		}
	}

	cfg.Resolve(root)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Resolve makes every configured path absolute relative to root.
func (c *Config) Resolve(root string) {
	c.Paths.Pages = resolve(root, c.Paths.Pages)
	c.Paths.Static = resolve(root, c.Paths.Static)
	c.Paths.Build = resolve(root, c.Paths.Build)
	c.Paths.Layouts = resolve(root, c.Paths.Layouts)
	c.Paths.Config = resolve(root, c.Paths.Config)
	c.Paths.Stylesheet = resolve(root, c.Paths.Stylesheet)
	c.Metrics.Textfile = resolve(root, c.Metrics.Textfile)
	c.History.Path = resolve(root, c.History.Path)
}

func resolve(root, p string) string {
	if p == "" {
		return ""
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

// Init writes an example configuration file. An existing file is only
// replaced when force is set.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return pserrors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext(pserrors.ContextPath, path).
			Build()
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return pserrors.InternalError("failed to marshal config").WithCause(err).Build()
	}

	header := "# pagesmith configuration. Paths are relative to the project root.\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0o600); err != nil {
		return pserrors.FileSystemError("write", path, err)
	}
	return nil
}
