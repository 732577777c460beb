// Package notify announces finished builds to interested listeners.
package notify

import (
	"context"
	"time"
)

// DefaultSubject is used when no subject is configured.
const DefaultSubject = "pagesmith.builds"

// Event describes one finished build.
type Event struct {
	BuildID     string    `json:"build_id"`
	Status      string    `json:"status"`
	OutputPath  string    `json:"output_path"`
	Documents   int       `json:"documents"`
	Pages       int       `json:"pages"`
	Assets      int       `json:"assets"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
	DurationMS  int64     `json:"duration_ms"`
}

// Publisher delivers build events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
