// Package logsinktest provides in-memory log destinations for tests.
package logsinktest

import (
	"context"
	"sync"

	"github.com/deppfellow/shalom-ministry/internal/logsink"
)

// MemoryDestination records every entry it receives. When Err is set,
// writes are still recorded and then fail with Err.
type MemoryDestination struct {
	DestName string
	Err      error

	mu      sync.Mutex
	entries []logsink.Entry
}

// NewMemoryDestination returns a destination reporting name.
func NewMemoryDestination(name string) *MemoryDestination {
	return &MemoryDestination{DestName: name}
}

func (m *MemoryDestination) Name() string { return m.DestName }

func (m *MemoryDestination) Write(_ context.Context, e logsink.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return m.Err
}

// Entries returns a copy of the recorded entries.
func (m *MemoryDestination) Entries() []logsink.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]logsink.Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// EventRecorder records custom events.
type EventRecorder struct {
	mu     sync.Mutex
	Events []string
}

func (r *EventRecorder) RecordEvent(eventType string, _ map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, eventType)
}

// RetryRecorder records entries handed over for a remote retry.
type RetryRecorder struct {
	mu      sync.Mutex
	Entries []logsink.Entry
}

func (r *RetryRecorder) EnqueueRemoteLogRetry(_ context.Context, e logsink.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Entries = append(r.Entries, e)
	return nil
}

// Count returns the number of retries enqueued.
func (r *RetryRecorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Entries)
}
