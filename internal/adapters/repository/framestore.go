package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/aqframes/internal/domain/model"
	"github.com/okian/aqframes/pkg/metrics"
)

const defaultHistory = 64

// ring is a fixed-size buffer of the latest frames of one chart.
type ring struct {
	frames []model.Frame
	next   int
	full   bool
}

func (r *ring) push(f model.Frame) {
	r.frames[r.next] = f
	r.next = (r.next + 1) % len(r.frames)
	if r.next == 0 {
		r.full = true
	}
}

func (r *ring) last() model.Frame {
	i := r.next - 1
	if i < 0 {
		i = len(r.frames) - 1
	}
	return r.frames[i]
}

func (r *ring) size() int {
	if r.full {
		return len(r.frames)
	}
	return r.next
}

// tail returns up to n latest frames, oldest first.
func (r *ring) tail(n int) []model.Frame {
	size := r.size()
	if n > size {
		n = size
	}
	out := make([]model.Frame, 0, n)
	start := r.next - n
	if start < 0 {
		start += len(r.frames)
	}
	for i := 0; i < n; i++ {
		out = append(out, r.frames[(start+i)%len(r.frames)])
	}
	return out
}

// FrameStore is an in-memory Store safe for concurrent use.
type FrameStore struct {
	mu      sync.RWMutex
	charts  map[string]*ring
	history int
}

// NewFrameStore creates an empty store.
func NewFrameStore(opts ...Option) *FrameStore {
	s := &FrameStore{
		charts:  make(map[string]*ring),
		history: defaultHistory,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save records f as the latest frame of its chart.
func (s *FrameStore) Save(ctx context.Context, f model.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	r, ok := s.charts[f.Chart]
	if !ok {
		r = &ring{frames: make([]model.Frame, s.history)}
		s.charts[f.Chart] = r
	}
	r.push(f)
	n := len(s.charts)
	s.mu.Unlock()

	metrics.UpdateFramesStored(n)
	return nil
}

// Last returns the latest frame of chart.
func (s *FrameStore) Last(_ context.Context, chart string) (model.Frame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.charts[chart]
	if !ok {
		return model.Frame{}, fmt.Errorf("%w: %s", ErrNotFound, chart)
	}
	return r.last(), nil
}

// History returns up to limit recent frames of chart, oldest first.
func (s *FrameStore) History(_ context.Context, chart string, limit int) ([]model.Frame, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.charts[chart]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, chart)
	}
	return r.tail(limit), nil
}

// Count returns the number of charts with at least one frame.
func (s *FrameStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.charts)
}
