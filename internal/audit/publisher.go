package audit

import (
	"context"
	"sync"
	"time"
)

// Sink receives audit events. Implementations are append-only.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Publisher stamps and forwards audit events to a sink. It is the single
// entry point services use so tests can swap sinks easily.
type Publisher struct {
	sink Sink
}

func NewPublisher(sink Sink) *Publisher {
	return &Publisher{sink: sink}
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return p.sink.Append(ctx, event)
}

// MemorySink keeps events in memory for tests and for the in-process worker
// fallback when kafka is not configured.
type MemorySink struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of everything appended so far.
func (s *MemorySink) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
