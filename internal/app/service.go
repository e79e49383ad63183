// Package service wires the chart pipeline together and provides the
// dependencies required by the HTTP API and the CLI.
//
// On Start the service loads the raw table from its source, normalizes it,
// builds every configured chart and puts a playback controller in front of
// each. Emitted frames are stored for polling and queued for a dispatcher
// that fans them out to stream subscribers and any extra sinks.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/aqframes/internal/adapters/mq/queue"
	"github.com/okian/aqframes/internal/adapters/mq/worker"
	"github.com/okian/aqframes/internal/adapters/repository"
	"github.com/okian/aqframes/internal/adapters/source"
	"github.com/okian/aqframes/internal/config"
	"github.com/okian/aqframes/internal/domain/chart"
	"github.com/okian/aqframes/internal/domain/model"
	"github.com/okian/aqframes/internal/domain/normalize"
	"github.com/okian/aqframes/internal/domain/playback"
	"github.com/okian/aqframes/internal/domain/sequence"
	"github.com/okian/aqframes/pkg/logger"
	"github.com/okian/aqframes/pkg/metrics"
)

// ChartInfo describes one loaded chart.
type ChartInfo struct {
	Definition chart.Definition `json:"definition"`
	Status     playback.Status  `json:"status"`
	Entities   []model.Key      `json:"entities"`
}

// Stats is a service snapshot for monitoring.
type Stats struct {
	Instance      string           `json:"instance"`
	Started       bool             `json:"started"`
	StartedAt     time.Time        `json:"started_at,omitzero"`
	Source        string           `json:"source"`
	Rows          normalize.Report `json:"rows"`
	Charts        int              `json:"charts"`
	Playing       int              `json:"playing"`
	QueueLength   int              `json:"queue_length"`
	QueueCapacity int              `json:"queue_capacity"`
	FramesStored  int              `json:"frames_stored"`
	Subscribers   int              `json:"subscribers"`
}

type entry struct {
	chart *chart.Chart
	ctrl  *playback.Controller
	store repository.Store
	ctx   context.Context //nolint:containedctx // bounds the tick goroutine
}

// Service owns the loaded charts and their controllers.
type Service struct {
	mu sync.RWMutex

	// Configuration
	cfg       *config.Config
	src       source.Source
	ticker    playback.TickerFunc
	sinks     []worker.Sink
	subBuffer int

	// Core components
	store      repository.Store
	queue      *queue.InMemoryQueue
	dispatcher *worker.Dispatcher
	broker     *broker
	charts     map[string]*entry
	order      []string

	// State
	id        string
	started   bool
	startedAt time.Time
	report    normalize.Report
	runCtx    context.Context //nolint:containedctx // lifetime of started controllers
	cancel    context.CancelFunc

	logger logger.Logger
}

// New constructs a Service. Nothing is loaded until Start.
func New(opts ...Option) *Service {
	s := &Service{
		cfg:       config.New(),
		subBuffer: defaultSubscriberBuffer,
		id:        uuid.NewString(),
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("service")
	return s
}

// ID returns the instance id.
func (s *Service) ID() string { return s.id }

// Start loads the source and starts every chart. Controllers outlive ctx
// and run until Shutdown.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting chart service", logger.String("instance", s.id))

	src := s.src
	if src == nil {
		var err error
		if src, err = source.FromConfig(s.cfg, s.logger); err != nil {
			return err
		}
	}
	rows, err := src.Load(ctx)
	if err != nil {
		metrics.RecordErrorByComponent("service", "source")
		return fmt.Errorf("load %s source: %w", src.Name(), err)
	}

	n := normalize.New(
		normalize.WithDateColumn(s.cfg.DateColumn),
		normalize.WithCategorical(s.cfg.Categorical...),
		normalize.WithBands(s.cfg.Bands),
		normalize.WithWeekend(s.cfg.WeekendDays()...),
		normalize.WithLogger(s.logger),
	)
	records, report := n.Normalize(ctx, rows)

	charts := make(map[string]*entry, len(s.cfg.Charts))
	order := make([]string, 0, len(s.cfg.Charts))
	built := make([]*chart.Chart, 0, len(s.cfg.Charts))
	for _, def := range s.cfg.Charts {
		c, err := chart.Build(records, def, s.cfg.Thresholds)
		if err != nil {
			return fmt.Errorf("build chart: %w", err)
		}
		built = append(built, c)
	}

	s.runCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	store := repository.NewFrameStore()
	q := queue.NewInMemoryQueue(queue.WithCapacity(s.cfg.FrameQueueSize))
	s.store, s.queue = store, q
	b := newBroker(s.subBuffer)
	s.broker = b

	sinks := append([]worker.Sink{
		worker.SinkFunc("stream", func(_ context.Context, f worker.Frame) error {
			b.publish(f)
			return nil
		}),
		worker.LogSink(s.logger),
	}, s.sinks...)
	s.dispatcher = worker.NewDispatcher(s.queue, sinks, worker.WithLogger(s.logger))
	go s.dispatcher.Run(s.runCtx)

	fallback := time.Duration(s.cfg.TickIntervalMS) * time.Millisecond
	for _, c := range built {
		def := c.Definition
		opts := []playback.Option{
			playback.WithName(def.ID),
			playback.WithInterval(def.Interval(fallback)),
			playback.WithLoop(def.Loop),
			playback.WithLogger(s.logger),
		}
		if s.ticker != nil {
			opts = append(opts, playback.WithTicker(s.ticker))
		}
		ctrl := playback.New(sequence.New(c.Periods()), c, s.renderer(store, q), opts...)
		charts[def.ID] = &entry{chart: c, ctrl: ctrl, store: store, ctx: s.runCtx}
		order = append(order, def.ID)
	}

	s.charts = charts
	s.order = order
	s.report = report
	s.started = true
	s.startedAt = time.Now()
	metrics.UpdateChartsLoaded(len(charts))

	for _, id := range order {
		ctrl := charts[id].ctrl
		if err := ctrl.Show(s.runCtx); err != nil && !errors.Is(err, playback.ErrEmptySequence) {
			s.logger.Warn(ctx, "initial frame failed", logger.String("chart", id), logger.Error(err))
		}
		if s.cfg.Autoplay {
			if err := ctrl.Start(s.runCtx); err != nil && !errors.Is(err, playback.ErrEmptySequence) {
				s.logger.Warn(ctx, "autoplay failed", logger.String("chart", id), logger.Error(err))
			}
		}
	}

	s.logger.Info(ctx, "chart service started",
		logger.String("source", src.Name()),
		logger.Int("rows", report.Rows),
		logger.Int("records", report.Records),
		logger.Int("malformed", report.Malformed),
		logger.Int("charts", len(charts)),
	)
	return nil
}

// Shutdown stops every controller, drains queued frames to the sinks and
// closes all subscriptions.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping chart service...")

	for _, id := range s.order {
		_ = s.charts[id].ctrl.Close()
	}
	_ = s.queue.Close()

	var err error
	select {
	case <-s.dispatcher.Done():
	case <-ctx.Done():
		err = s.dispatcher.Shutdown(ctx)
	}
	s.cancel()
	s.broker.closeAll()

	s.started = false
	metrics.UpdateChartsLoaded(0)
	s.logger.Info(ctx, "chart service stopped")
	return err
}

// renderer stores frames in store and queues them on q for the sinks. A
// full queue drops the frame for the sinks only; it is still stored. The
// store and queue are bound here so controllers of an earlier Start never
// write into a later one's.
func (s *Service) renderer(store repository.Store, q *queue.InMemoryQueue) playback.RenderFunc {
	return func(ctx context.Context, f model.Frame) error {
		if err := store.Save(ctx, f); err != nil {
			return fmt.Errorf("store frame: %w", err)
		}
		err := q.Enqueue(ctx, f)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, queue.ErrFull), errors.Is(err, queue.ErrClosed):
			s.logger.Warn(ctx, "frame not queued",
				logger.String("chart", f.Chart),
				logger.Uint64("seq", f.Seq),
				logger.Error(err),
			)
			return nil
		default:
			return fmt.Errorf("queue frame: %w", err)
		}
	}
}

func (s *Service) lookup(id string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return nil, ErrNotStarted
	}
	e, ok := s.charts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrChartNotFound, id)
	}
	return e, nil
}

func info(e *entry) ChartInfo {
	return ChartInfo{
		Definition: e.chart.Definition,
		Status:     e.ctrl.Status(),
		Entities:   e.chart.Entities(),
	}
}

// Charts returns every loaded chart in configuration order.
func (s *Service) Charts() []ChartInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ChartInfo, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, info(s.charts[id]))
	}
	return out
}

// Chart returns one chart.
func (s *Service) Chart(id string) (ChartInfo, error) {
	e, err := s.lookup(id)
	if err != nil {
		return ChartInfo{}, err
	}
	return info(e), nil
}

// Play starts a chart's playback.
func (s *Service) Play(id string) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	return e.ctrl.Start(e.ctx)
}

// Pause stops a chart's playback.
func (s *Service) Pause(id string) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	e.ctrl.Stop()
	return nil
}

// Toggle flips a chart between playing and stopped.
func (s *Service) Toggle(id string) (playback.State, error) {
	e, err := s.lookup(id)
	if err != nil {
		return playback.Stopped, err
	}
	return e.ctrl.Toggle(e.ctx)
}

// Step advances a chart by one period in either state.
func (s *Service) Step(ctx context.Context, id string) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	return e.ctrl.Step(ctx)
}

// Jump shows the period whose key is key, e.g. "3" for March of a monthly chart.
func (s *Service) Jump(ctx context.Context, id, key string) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	p, err := model.ParsePeriod(e.chart.PeriodKind, key)
	if err != nil {
		return err
	}
	return e.ctrl.JumpTo(ctx, p)
}

// Select restricts a chart to the given entities; no keys clears the selection.
func (s *Service) Select(ctx context.Context, id string, keys []model.Key) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	return e.ctrl.Select(ctx, keys)
}

// Frame returns the latest frame of a chart.
func (s *Service) Frame(ctx context.Context, id string) (model.Frame, error) {
	e, err := s.lookup(id)
	if err != nil {
		return model.Frame{}, err
	}
	return e.store.Last(ctx, id)
}

// History returns up to limit recent frames of a chart, oldest first.
func (s *Service) History(ctx context.Context, id string, limit int) ([]model.Frame, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return e.store.History(ctx, id, limit)
}

// Subscribe opens a frame feed for chart, or for every chart when chart is empty.
func (s *Service) Subscribe(chartID string) (Subscription, error) {
	if chartID != "" {
		if _, err := s.lookup(chartID); err != nil {
			return Subscription{}, err
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return Subscription{}, ErrNotStarted
	}
	return s.broker.subscribe(chartID), nil
}

// Unsubscribe closes a feed opened by Subscribe.
func (s *Service) Unsubscribe(id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	if !s.broker.unsubscribe(id) {
		return fmt.Errorf("%w: %q", ErrUnknownSubscriber, id)
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		Instance: s.id,
		Started:  s.started,
		Source:   s.cfg.Source,
		Charts:   len(s.charts),
	}
	if s.src != nil {
		st.Source = s.src.Name()
	}
	if !s.started {
		return st
	}
	st.StartedAt = s.startedAt
	st.Rows = s.report
	for _, id := range s.order {
		if s.charts[id].ctrl.State() == playback.Playing {
			st.Playing++
		}
	}
	st.QueueLength = s.queue.Len(ctx)
	st.QueueCapacity = s.cfg.FrameQueueSize
	st.FramesStored = s.store.Count(ctx)
	st.Subscribers = s.broker.len()
	return st
}
