// Package playback drives a chart through its periods on a timer.
//
// A Controller is either Stopped or Playing. While Playing a goroutine ticks
// at the configured interval; every tick advances the sequence, reconciles
// the period's dataset against the one shown last and hands the resulting
// frame to the renderer. Manual jumps and selections go through the same
// path. One mutex serializes all of them, and the renderer is called while
// it is held, so a renderer must not call back into its controller.
package playback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/aqframes/internal/domain/model"
	"github.com/okian/aqframes/internal/domain/reconcile"
	"github.com/okian/aqframes/internal/domain/sequence"
	"github.com/okian/aqframes/pkg/logger"
	"github.com/okian/aqframes/pkg/metrics"
)

// Default controller configuration constants.
const (
	DefaultInterval = 1500 * time.Millisecond
	defaultName     = "chart"
)

// State is the playback state.
type State int

// Playback states.
const (
	Stopped State = iota
	Playing
)

// String implements fmt.Stringer.
func (s State) String() string {
	if s == Playing {
		return "playing"
	}
	return "stopped"
}

// Renderer receives every emitted frame.
type Renderer interface {
	Render(ctx context.Context, f model.Frame) error
}

// RenderFunc adapts a function to Renderer.
type RenderFunc func(ctx context.Context, f model.Frame) error

// Render calls f.
func (f RenderFunc) Render(ctx context.Context, fr model.Frame) error { return f(ctx, fr) }

// DatasetSource looks up the dataset of a period.
type DatasetSource interface {
	Dataset(p model.Period) (*model.Dataset, bool)
}

// Status is a point-in-time view of a controller.
type Status struct {
	Name     string         `json:"name"`
	State    string         `json:"state"`
	Current  *model.Period  `json:"current,omitempty"`
	Periods  []model.Period `json:"periods"`
	Interval int64          `json:"interval_ms"`
	Loop     bool           `json:"loop"`
	Selected []model.Key    `json:"selected,omitempty"`
	Frames   uint64         `json:"frames"`
}

// Controller is the playback state machine of one chart.
type Controller struct {
	seq      *sequence.Sequence
	source   DatasetSource
	renderer Renderer

	name      string
	interval  time.Duration
	loop      bool
	newTicker TickerFunc
	now       func() time.Time
	logger    logger.Logger

	mu         sync.Mutex
	state      State
	current    model.Period
	hasCurrent bool
	last       *model.Dataset // dataset as shown, after selection
	selected   []model.Key
	keep       func(model.Key) bool
	frames     uint64

	// Tick goroutine control; stop is nil once closed.
	stop chan struct{}
	done chan struct{}
}

// New creates a stopped controller.
func New(seq *sequence.Sequence, source DatasetSource, renderer Renderer, opts ...Option) *Controller {
	c := &Controller{
		seq:       seq,
		source:    source,
		renderer:  renderer,
		name:      defaultName,
		interval:  DefaultInterval,
		loop:      true,
		newTicker: NewTimeTicker,
		now:       time.Now,
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named(c.name)
	return c
}

// Name returns the chart name.
func (c *Controller) Name() string { return c.name }

// Start begins playback. It is a no-op when already playing. ctx bounds the
// tick goroutine; cancelling it stops playback.
// A non-looping controller resting on its last period restarts from the first.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.seq.Len() == 0 {
		return ErrEmptySequence
	}
	if c.state == Playing {
		return nil
	}
	if !c.loop && c.hasCurrent && c.seq.AtLast() {
		if err := c.seq.Reset(); err != nil {
			return err
		}
		p, _ := c.seq.Current()
		if err := c.emit(ctx, p); err != nil {
			c.logger.Warn(ctx, "restart frame failed", logger.Error(err))
		}
	}

	c.state = Playing
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go c.run(ctx, c.newTicker(c.interval), c.stop, c.done)

	metrics.UpdatePlaying(c.name, true)
	c.logger.Info(ctx, "playback started", logger.Duration("interval", c.interval))
	return nil
}

// Stop halts playback and waits for the tick goroutine to exit, so no tick
// fires after it returns. It is a no-op when already stopped.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.state != Playing {
		c.mu.Unlock()
		return
	}
	c.halt()
	done := c.done
	c.mu.Unlock()

	<-done
	c.logger.Info(context.Background(), "playback stopped")
}

// Toggle starts a stopped controller and stops a playing one.
func (c *Controller) Toggle(ctx context.Context) (State, error) {
	if c.State() == Playing {
		c.Stop()
		return Stopped, nil
	}
	if err := c.Start(ctx); err != nil {
		return Stopped, err
	}
	return Playing, nil
}

// Close stops playback and waits for any tick goroutine to exit.
func (c *Controller) Close() error {
	c.Stop()
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
	return nil
}

// Tick advances to the next period and emits it. It is a no-op when stopped.
// Without looping, a tick on the last period stops playback instead.
func (c *Controller) Tick(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Playing {
		return nil
	}
	metrics.RecordTick(c.name)
	if !c.loop && c.seq.AtLast() {
		c.halt()
		c.logger.Info(ctx, "playback reached last period")
		return nil
	}
	p, err := c.seq.Advance()
	if err != nil {
		return err
	}
	return c.emit(ctx, p)
}

// Step advances to the next period and emits it in either state. Unlike
// Tick it always wraps and never stops playback.
func (c *Controller) Step(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.seq.Advance()
	if err != nil {
		return err
	}
	return c.emit(ctx, p)
}

// JumpTo shows period p in either state. The state is unchanged; when
// playing, the next tick continues after p.
func (c *Controller) JumpTo(ctx context.Context, p model.Period) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.seq.Seek(p) {
		c.logger.Debug(ctx, "jump to period without data", logger.String("period", p.Key()))
	}
	return c.emit(ctx, p)
}

// Select restricts shown entities to keys and re-emits the current period.
// An empty keys clears the selection.
func (c *Controller) Select(ctx context.Context, keys []model.Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.selected = nil
	c.keep = nil
	if len(keys) > 0 {
		set := make(map[string]struct{}, len(keys))
		for _, k := range keys {
			set[k.ID()] = struct{}{}
			c.selected = append(c.selected, k)
		}
		c.keep = func(k model.Key) bool {
			_, ok := set[k.ID()]
			return ok
		}
	}

	p, ok := c.current, c.hasCurrent
	if !ok {
		var err error
		if p, err = c.seq.Current(); err != nil {
			return nil
		}
	}
	return c.emit(ctx, p)
}

// Show emits the period under the cursor without advancing.
func (c *Controller) Show(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.seq.Current()
	if err != nil {
		return err
	}
	return c.emit(ctx, p)
}

// State returns the playback state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current returns the period shown last.
func (c *Controller) Current() (model.Period, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, c.hasCurrent
}

// Status returns a snapshot of the controller.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{
		Name:     c.name,
		State:    c.state.String(),
		Periods:  c.seq.Periods(),
		Interval: c.interval.Milliseconds(),
		Loop:     c.loop,
		Frames:   c.frames,
	}
	if c.hasCurrent {
		p := c.current
		st.Current = &p
	}
	if len(c.selected) > 0 {
		st.Selected = append([]model.Key(nil), c.selected...)
	}
	return st
}

// run ticks until stop is closed or ctx is done.
func (c *Controller) run(ctx context.Context, t Ticker, stop, done chan struct{}) {
	defer close(done)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			c.mu.Lock()
			if c.stop == stop {
				c.halt()
			}
			c.mu.Unlock()
			return
		case <-stop:
			return
		case <-t.C():
			if err := c.Tick(ctx); err != nil {
				c.logger.Error(ctx, "tick failed", logger.Error(err))
			}
		}
	}
}

// halt moves to Stopped and signals the tick goroutine. Callers hold mu.
func (c *Controller) halt() {
	c.state = Stopped
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	metrics.UpdatePlaying(c.name, false)
}

// emit reconciles p against the last shown dataset and renders the frame.
// A period without data yields an empty frame in which every shown key exits.
// Callers hold mu.
func (c *Controller) emit(ctx context.Context, p model.Period) error {
	ds, ok := c.source.Dataset(p)
	if !ok {
		ds = model.NewDataset(p)
	}
	shown := ds.Filter(c.keep)

	diff := reconcile.Reconcile(c.last, shown)
	c.last = shown
	c.current = p
	c.hasCurrent = true
	c.frames++

	f := model.Frame{
		Chart:   c.name,
		Seq:     c.frames,
		Period:  p,
		Empty:   shown.Len() == 0,
		Diff:    diff,
		Emitted: c.now(),
	}
	metrics.RecordFrame(c.name, len(diff.Entering), len(diff.Updating), len(diff.Exiting), f.Empty)
	c.logger.Debug(ctx, "frame emitted",
		logger.String("period", p.Key()),
		logger.Uint64("seq", f.Seq),
		logger.Int("entering", len(diff.Entering)),
		logger.Int("updating", len(diff.Updating)),
		logger.Int("exiting", len(diff.Exiting)),
	)

	if c.renderer == nil {
		return nil
	}
	if err := c.renderer.Render(ctx, f); err != nil {
		metrics.RecordErrorByComponent("playback", "render")
		return fmt.Errorf("%w: %s frame %d: %w", ErrRender, c.name, f.Seq, err)
	}
	return nil
}
