package config

import (
	"path/filepath"
	"strings"

	pserrors "git.home.luguber.info/inful/pagesmith/internal/errors"
)

// Validate rejects configurations that cannot produce a build or whose build
// directory would destroy the sources when it is reset.
func Validate(cfg *Config) error {
	if cfg.Build.Concurrency < 0 {
		return pserrors.ConfigError("build.concurrency must not be negative").
			WithContext("value", cfg.Build.Concurrency).
			Build()
	}
	if cfg.Paths.Build == "" {
		return pserrors.ConfigError("paths.build must be set").Build()
	}
	if cfg.Paths.Pages == "" {
		return pserrors.ConfigError("paths.pages must be set").Build()
	}

	sources := []struct{ field, path string }{
		{"paths.pages", cfg.Paths.Pages},
		{"paths.static", cfg.Paths.Static},
	}
	for _, src := range sources {
		if src.path != "" && within(cfg.Paths.Build, src.path) {
			return pserrors.ConfigError("build directory must not contain the sources").
				WithContext("field", src.field).
				WithContext(pserrors.ContextPath, src.path).
				Build()
		}
	}
	return nil
}

// within reports whether p is dir or lies below it.
func within(dir, p string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(p))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
