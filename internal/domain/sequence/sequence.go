// Package sequence orders the periods of a chart and tracks the playback cursor.
package sequence

import (
	"sort"

	"github.com/okian/aqframes/internal/domain/model"
)

// Sequence is an ordered, duplicate-free list of periods with a cursor.
// It is not safe for concurrent use; the playback controller owns it.
type Sequence struct {
	periods []model.Period
	pos     int
	// pending is set by a Seek to an unknown period; the next Advance
	// returns periods[pos] instead of moving past it.
	pending bool
}

// New sorts periods ascending and removes duplicates. The cursor starts at
// the first period.
func New(periods []model.Period) *Sequence {
	ps := make([]model.Period, len(periods))
	copy(ps, periods)
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].Less(ps[j]) })

	out := ps[:0]
	for i, p := range ps {
		if i > 0 && p == out[len(out)-1] {
			continue
		}
		out = append(out, p)
	}
	return &Sequence{periods: out}
}

// Current returns the period under the cursor.
func (s *Sequence) Current() (model.Period, error) {
	if len(s.periods) == 0 {
		return model.Period{}, ErrEmptySequence
	}
	return s.periods[s.pos], nil
}

// Advance moves to the next period, wrapping after the last, and returns it.
// A single-period sequence returns the same period.
func (s *Sequence) Advance() (model.Period, error) {
	if len(s.periods) == 0 {
		return model.Period{}, ErrEmptySequence
	}
	if s.pending {
		s.pending = false
		return s.periods[s.pos], nil
	}
	s.pos = (s.pos + 1) % len(s.periods)
	return s.periods[s.pos], nil
}

// Reset moves the cursor back to the first period.
func (s *Sequence) Reset() error {
	if len(s.periods) == 0 {
		return ErrEmptySequence
	}
	s.pos = 0
	s.pending = false
	return nil
}

// Seek moves the cursor to p and reports whether p is in the sequence.
// For an unknown p the cursor is placed so the next Advance returns the
// first period after p, wrapping to the first period.
func (s *Sequence) Seek(p model.Period) bool {
	if len(s.periods) == 0 {
		return false
	}
	i := sort.Search(len(s.periods), func(i int) bool { return !s.periods[i].Less(p) })
	if i < len(s.periods) && s.periods[i] == p {
		s.pos = i
		s.pending = false
		return true
	}
	s.pos = i % len(s.periods)
	s.pending = true
	return false
}

// Periods returns a copy of the ordered periods.
func (s *Sequence) Periods() []model.Period {
	out := make([]model.Period, len(s.periods))
	copy(out, s.periods)
	return out
}

// Len returns the number of periods.
func (s *Sequence) Len() int { return len(s.periods) }

// AtLast reports whether the cursor is on the last period.
func (s *Sequence) AtLast() bool {
	return len(s.periods) > 0 && !s.pending && s.pos == len(s.periods)-1
}
