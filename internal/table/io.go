package table

import (
	"context"
	"io"
	"sync"
)

// Source yields events in order. Next returns io.EOF after the last event.
type Source interface {
	Next(ctx context.Context) (*Event, error)
}

// Sink receives projected rows in event order.
type Sink interface {
	Write(ctx context.Context, row *Row) error
}

// SliceSource serves events from memory.
type SliceSource struct {
	mu     sync.Mutex
	events []*Event
	pos    int
}

// NewSliceSource returns a source over events.
func NewSliceSource(events []*Event) *SliceSource {
	return &SliceSource{events: events}
}

// Next implements Source.
func (s *SliceSource) Next(ctx context.Context) (*Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos >= len(s.events) {
		return nil, io.EOF
	}
	ev := s.events[s.pos]
	s.pos++
	return ev, nil
}

// Reset rewinds the source to the first event.
func (s *SliceSource) Reset() {
	s.mu.Lock()
	s.pos = 0
	s.mu.Unlock()
}

// MemorySink collects rows in memory.
type MemorySink struct {
	mu   sync.Mutex
	rows []*Row
}

// Write implements Sink.
func (s *MemorySink) Write(_ context.Context, row *Row) error {
	s.mu.Lock()
	s.rows = append(s.rows, row)
	s.mu.Unlock()
	return nil
}

// Rows returns a copy of the collected rows.
func (s *MemorySink) Rows() []*Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Row(nil), s.rows...)
}
