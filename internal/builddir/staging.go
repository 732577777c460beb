package builddir

import (
	"context"
	"sync"

	"git.home.luguber.info/inful/pagesmith/internal/logfields"
	"git.home.luguber.info/inful/pagesmith/internal/observability"
)

// Staging is an isolated directory that becomes the output directory on Commit.
type Staging struct {
	m      *Manager
	target string
	path   string

	mu   sync.Mutex
	done bool
}

// Stage creates an empty staging directory next to dir. The current content
// of dir is left untouched until Commit.
func (m *Manager) Stage(ctx context.Context, dir string) (*Staging, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := m.createSibling(dir, "staging")
	if err != nil {
		return nil, err
	}
	observability.DebugContext(ctx, "Initialized staging directory", logfields.Path(path))
	return &Staging{m: m, target: dir, path: path}, nil
}

// Path is where the build should write.
func (s *Staging) Path() string {
	return s.path
}

// Commit promotes the staging directory to the output directory. On failure
// the staging directory is removed and the previous output is kept.
func (s *Staging) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return nil
	}
	s.done = true

	if err := s.m.swap(s.path, s.target); err != nil {
		_ = s.m.fs.RemoveAll(s.path)
		return err
	}
	observability.InfoContext(ctx, "Promoted staging directory", logfields.Path(s.target))
	return nil
}

// Abort discards the staging directory. It is a no-op after Commit.
func (s *Staging) Abort(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	s.done = true

	if err := s.m.fs.RemoveAll(s.path); err != nil {
		observability.WarnContext(ctx, "Failed to remove staging directory after abort",
			logfields.Path(s.path), logfields.Error(err))
		return
	}
	observability.DebugContext(ctx, "Removed staging directory after abort", logfields.Path(s.path))
}
