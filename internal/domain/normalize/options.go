package normalize

import (
	"time"

	"github.com/okian/aqframes/pkg/logger"
)

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithDateColumn sets the column holding the record date.
func WithDateColumn(name string) Option {
	return func(n *Normalizer) {
		if name != "" {
			n.dateColumn = name
		}
	}
}

// WithCategorical declares columns kept as text instead of coerced to numbers.
// The date column is always categorical.
func WithCategorical(columns ...string) Option {
	return func(n *Normalizer) {
		if len(columns) == 0 {
			return
		}
		n.categorical = make(map[string]struct{}, len(columns))
		for _, c := range columns {
			n.categorical[c] = struct{}{}
		}
	}
}

// WithBands replaces the derived Low/High bands.
func WithBands(bands []Band) Option {
	return func(n *Normalizer) {
		if bands != nil {
			n.bands = bands
		}
	}
}

// WithWeekend sets the days classed as Weekend in the day_type category.
func WithWeekend(days ...time.Weekday) Option {
	return func(n *Normalizer) {
		if len(days) == 0 {
			return
		}
		n.weekend = [7]bool{}
		for _, d := range days {
			if d >= time.Sunday && d <= time.Saturday {
				n.weekend[d] = true
			}
		}
	}
}

// WithLogger sets the logger used for row warnings.
func WithLogger(l logger.Logger) Option {
	return func(n *Normalizer) {
		if l != nil {
			n.logger = l
		}
	}
}
