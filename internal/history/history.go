// Package history keeps a ledger of completed builds. It records what
// happened; it is never consulted to decide what to rebuild.
package history

import (
	"context"
	"time"
)

// Record describes one finished build.
type Record struct {
	BuildID     string
	Status      string
	StartedAt   time.Time
	EndedAt     time.Time
	Pages       int
	Assets      int
	Error       string
	Fingerprint string
}

// Duration is the wall time of the build.
func (r Record) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// Recorder persists build records.
type Recorder interface {
	RecordBuild(ctx context.Context, rec Record) error
}

// NoopRecorder discards records (default when history is not configured).
type NoopRecorder struct{}

func (NoopRecorder) RecordBuild(context.Context, Record) error { return nil }
