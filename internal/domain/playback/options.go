package playback

import (
	"time"

	"github.com/okian/aqframes/pkg/logger"
)

// Option applies a configuration option to the Controller.
type Option func(*Controller)

// WithInterval sets the time between ticks.
func WithInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithName sets the chart name used in frames, logs and metrics.
func WithName(name string) Option {
	return func(c *Controller) {
		if name != "" {
			c.name = name
		}
	}
}

// WithLogger sets a custom logger for the controller.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithLoop controls whether playback wraps after the last period.
// Without looping, a tick on the last period stops playback.
func WithLoop(loop bool) Option {
	return func(c *Controller) {
		c.loop = loop
	}
}

// WithTicker replaces the ticker factory.
func WithTicker(f TickerFunc) Option {
	return func(c *Controller) {
		if f != nil {
			c.newTicker = f
		}
	}
}

// WithClock replaces the clock used to stamp frames.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}
