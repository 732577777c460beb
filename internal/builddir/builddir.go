package builddir

import (
	"context"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	pserrors "git.home.luguber.info/inful/pagesmith/internal/errors"
	"git.home.luguber.info/inful/pagesmith/internal/logfields"
	"git.home.luguber.info/inful/pagesmith/internal/observability"
)

const dirPerm = 0o755

// Manager prepares and replaces build directories.
type Manager struct {
	fs    afero.Fs
	newID func() string
}

// NewManager creates a Manager operating on fs.
func NewManager(fs afero.Fs) *Manager {
	return &Manager{
		fs:    fs,
		newID: func() string { return uuid.NewString()[:8] },
	}
}

// Reset ensures dir exists and is empty. All prior content is discarded.
func (m *Manager) Reset(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	staging, err := m.createSibling(dir, "staging")
	if err != nil {
		return err
	}

	err = m.swap(staging, dir)
	if err == nil {
		observability.DebugContext(ctx, "Reset build directory", logfields.Path(dir))
		return nil
	}
	if op, _ := pserrors.ContextValue(err, pserrors.ContextOperation); op != "rename" {
		_ = m.fs.RemoveAll(staging)
		return err
	}

	observability.WarnContext(ctx, "Rename refused, recreating build directory in place",
		logfields.Path(dir), logfields.Error(err))
	if rmErr := m.fs.RemoveAll(staging); rmErr != nil {
		return pserrors.FileSystemError("remove", staging, rmErr)
	}
	return m.recreate(dir)
}

func (m *Manager) recreate(dir string) error {
	if err := m.fs.RemoveAll(dir); err != nil {
		return pserrors.FileSystemError("remove", dir, err)
	}
	if err := m.fs.MkdirAll(dir, dirPerm); err != nil {
		return pserrors.FileSystemError("create", dir, err)
	}
	return nil
}

func (m *Manager) createSibling(dir, kind string) (string, error) {
	parent := filepath.Dir(filepath.Clean(dir))
	if err := m.fs.MkdirAll(parent, dirPerm); err != nil {
		return "", pserrors.FileSystemError("create", parent, err)
	}

	path := m.sibling(dir, kind)
	if err := m.fs.MkdirAll(path, dirPerm); err != nil {
		return "", pserrors.FileSystemError("create", path, err)
	}
	return path, nil
}

func (m *Manager) sibling(dir, kind string) string {
	return filepath.Clean(dir) + "." + kind + "-" + m.newID()
}

// swap puts src in place of dir. If the second rename fails the previous
// directory is moved back.
func (m *Manager) swap(src, dir string) error {
	exists, err := afero.Exists(m.fs, dir)
	if err != nil {
		return pserrors.FileSystemError("stat", dir, err)
	}

	prev := m.sibling(dir, "prev")
	if exists {
		if err := m.fs.Rename(dir, prev); err != nil {
			return pserrors.FileSystemError("rename", dir, err)
		}
	}

	if err := m.fs.Rename(src, dir); err != nil {
		if exists {
			_ = m.fs.Rename(prev, dir)
		}
		return pserrors.FileSystemError("rename", src, err)
	}

	if exists {
		if err := m.fs.RemoveAll(prev); err != nil {
			return pserrors.FileSystemError("remove", prev, err)
		}
	}
	return nil
}
