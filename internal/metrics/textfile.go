package metrics

import (
	"os"
	"path/filepath"

	prom "github.com/prometheus/client_golang/prometheus"

	pserrors "git.home.luguber.info/inful/pagesmith/internal/errors"
)

// WriteTextfile writes every metric gathered from reg to path in the text
// exposition format read by node_exporter's textfile collector.
func WriteTextfile(path string, reg prom.Gatherer) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return pserrors.FileSystemError("create", filepath.Dir(path), err)
	}
	if err := prom.WriteToTextfile(path, reg); err != nil {
		return pserrors.FileSystemError("write", path, err)
	}
	return nil
}
