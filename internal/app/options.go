package service

import (
	"github.com/okian/aqframes/internal/adapters/mq/worker"
	"github.com/okian/aqframes/internal/adapters/source"
	"github.com/okian/aqframes/internal/config"
	"github.com/okian/aqframes/internal/domain/playback"
	"github.com/okian/aqframes/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the configuration. Defaults to config.New().
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithSource overrides the source selected by the configuration.
func WithSource(src source.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.src = src
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTicker sets the ticker factory handed to every controller.
func WithTicker(f playback.TickerFunc) Option {
	return func(s *Service) {
		if f != nil {
			s.ticker = f
		}
	}
}

// WithSinks adds frame sinks after the built-in ones.
func WithSinks(sinks ...worker.Sink) Option {
	return func(s *Service) {
		s.sinks = append(s.sinks, sinks...)
	}
}

// WithSubscriberBuffer sets the per-subscriber frame buffer.
func WithSubscriberBuffer(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.subBuffer = n
		}
	}
}
