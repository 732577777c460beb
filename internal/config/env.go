package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	pserrors "git.home.luguber.info/inful/pagesmith/internal/errors"
	"git.home.luguber.info/inful/pagesmith/internal/logfields"
)

var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads .env and .env.local from root when present. Variables
// already set in the process environment win.
func loadEnvFiles(root string) error {
	for _, name := range envFiles {
		path := filepath.Join(root, name)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return pserrors.ConfigError("failed to load environment file").
				WithContext(pserrors.ContextPath, path).
				WithCause(err).
				Build()
		}
		slog.Debug("Loaded environment variables", logfields.Path(path))
	}
	return nil
}
