package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pserrors "git.home.luguber.info/inful/pagesmith/internal/errors"
)

func TestEventJSON(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ev := Event{
		BuildID:    "abc",
		Status:     "success",
		OutputPath: "/site/build",
		Pages:      2,
		StartedAt:  start,
		EndedAt:    start.Add(1500 * time.Millisecond),
		DurationMS: 1500,
	}

	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "abc", decoded["build_id"])
	assert.Equal(t, "2026-03-01T12:00:00Z", decoded["started_at"])
	assert.InDelta(t, 1500, decoded["duration_ms"], 0)
	assert.NotContains(t, decoded, "error")
	assert.NotContains(t, decoded, "fingerprint")
}

func TestNoopPublisher(t *testing.T) {
	assert.NoError(t, NoopPublisher{}.Publish(context.Background(), Event{}))
}

func TestNewNATSPublisher_UnreachableServer(t *testing.T) {
	_, err := NewNATSPublisher("nats://127.0.0.1:1", "", nats.Timeout(200*time.Millisecond))
	require.Error(t, err)
	assert.True(t, pserrors.HasCategory(err, pserrors.CategoryRuntime))

	classified, ok := pserrors.AsClassified(err)
	require.True(t, ok)
	assert.True(t, classified.CanRetry())
	assert.Equal(t, pserrors.SeverityWarning, classified.Severity())
	url, _ := pserrors.ContextValue(err, "url")
	assert.Equal(t, "nats://127.0.0.1:1", url)
}

func TestClose_NilConnection(t *testing.T) {
	assert.NoError(t, (&NATSPublisher{}).Close())
}
