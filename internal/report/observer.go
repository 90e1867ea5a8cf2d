package report

import (
	"context"
	"sync"

	"github.com/specialistvlad/workgrid/internal/pipeline"
)

// Multi fans an event out to several observers in order.
type Multi []pipeline.Observer

// Observe implements pipeline.Observer.
func (m Multi) Observe(ctx context.Context, e pipeline.Event) {
	for _, o := range m {
		if o != nil {
			o.Observe(ctx, e)
		}
	}
}

// Summary counts events per kind and remembers which packages failed.
type Summary struct {
	mu     sync.Mutex
	counts map[pipeline.EventKind]int
	failed []string
}

// NewSummary returns an empty Summary.
func NewSummary() *Summary {
	return &Summary{counts: make(map[pipeline.EventKind]int)}
}

// Observe implements pipeline.Observer.
func (s *Summary) Observe(_ context.Context, e pipeline.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[e.Kind]++
	if e.Kind == pipeline.EventFailed {
		s.failed = append(s.failed, e.Stage+"/"+e.Package)
	}
}

// Count returns how many events of kind were seen.
func (s *Summary) Count(kind pipeline.EventKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[kind]
}

// Failed returns "stage/package" for every failure, in the order seen.
func (s *Summary) Failed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.failed...)
}

// LogAttrs renders the summary as slog key/value pairs.
func (s *Summary) LogAttrs() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return []any{
		"finished", s.counts[pipeline.EventFinished],
		"skipped", s.counts[pipeline.EventSkipped],
		"failed", s.counts[pipeline.EventFailed],
	}
}
