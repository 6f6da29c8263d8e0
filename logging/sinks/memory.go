package sinks

import (
	"context"
	"sync"

	"atelier/editor/logging"
)

// MemorySink retains events in memory. It exists for tests and diagnostics.
type MemorySink struct {
	mu     sync.Mutex
	events []logging.Event
}

// NewMemorySink returns an empty memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Write(event logging.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *MemorySink) Close(context.Context) error {
	return nil
}

// Events returns a copy of everything written so far.
func (s *MemorySink) Events() []logging.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == 0 {
		return nil
	}
	out := make([]logging.Event, len(s.events))
	copy(out, s.events)
	return out
}
