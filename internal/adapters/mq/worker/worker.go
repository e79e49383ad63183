// Package worker dispatches queued frames to their sinks.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/aqframes/internal/adapters/mq/queue"
	"github.com/okian/aqframes/pkg/logger"
	"github.com/okian/aqframes/pkg/metrics"
)

// Frame abstracts what the dispatcher reads off the queue.
type Frame = queue.Frame

// Queue defines how the dispatcher receives frames.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Frame
}

// Sink consumes dispatched frames. Sinks run in registration order on the
// dispatcher goroutine, so frames of a chart reach every sink in emission order.
type Sink interface {
	Name() string
	Consume(ctx context.Context, f Frame) error
}

type funcSink struct {
	name string
	fn   func(ctx context.Context, f Frame) error
}

func (s funcSink) Name() string                               { return s.name }
func (s funcSink) Consume(ctx context.Context, f Frame) error { return s.fn(ctx, f) }

// SinkFunc adapts a function to Sink.
func SinkFunc(name string, fn func(ctx context.Context, f Frame) error) Sink {
	return funcSink{name: name, fn: fn}
}

// Dispatcher reads frames from a queue and fans them out to sinks.
type Dispatcher struct {
	queue Queue
	sinks []Sink
	name  string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewDispatcher creates a dispatcher over q.
func NewDispatcher(q Queue, sinks []Sink, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		queue:    q,
		sinks:    append([]Sink(nil), sinks...),
		name:     "dispatcher",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.Named(d.name)
	return d
}

// Run dispatches until ctx is cancelled, Shutdown is called or the queue is
// closed and drained.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)

	frames := d.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.shutdown:
			return
		case f, ok := <-frames:
			if !ok {
				return
			}
			d.dispatch(ctx, f)
		}
	}
}

// Done is closed when Run returns.
func (d *Dispatcher) Done() <-chan struct{} { return d.done }

// Shutdown stops the dispatcher and waits for Run to return.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	select {
	case <-d.shutdown:
	default:
		close(d.shutdown)
	}

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		d.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// dispatch hands f to every sink. A failing sink does not stop the others.
func (d *Dispatcher) dispatch(ctx context.Context, f Frame) { //nolint:gocritic // hugeParam: Frame is passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordDispatchLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	for _, s := range d.sinks {
		if err := s.Consume(ctx, f); err != nil {
			metrics.RecordSinkError(s.Name())
			metrics.RecordErrorByComponent("worker", "sink_error")
			d.logger.Error(ctx, "sink failed",
				logger.String("sink", s.Name()),
				logger.String("chart", f.Chart),
				logger.Uint64("seq", f.Seq),
				logger.Error(err),
			)
		}
	}
}

// LogSink writes a one-line summary of every frame at debug level.
func LogSink(l logger.Logger) Sink {
	return SinkFunc("log", func(ctx context.Context, f Frame) error {
		l.Debug(ctx, "frame",
			logger.String("chart", f.Chart),
			logger.Uint64("seq", f.Seq),
			logger.String("period", f.Period.Key()),
			logger.Bool("empty", f.Empty),
			logger.Int("changes", f.Diff.Len()),
		)
		return nil
	})
}
