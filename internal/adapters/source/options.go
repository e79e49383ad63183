package source

import (
	"time"

	"github.com/okian/aqframes/pkg/logger"
)

// Option configures a Postgres source.
type Option func(*Postgres)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Postgres) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithPingTimeout bounds the connection check.
func WithPingTimeout(d time.Duration) Option {
	return func(p *Postgres) {
		if d > 0 {
			p.timeout = d
		}
	}
}
