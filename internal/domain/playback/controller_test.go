package playback_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/aqframes/internal/domain/model"
	"github.com/okian/aqframes/internal/domain/playback"
	"github.com/okian/aqframes/internal/domain/sequence"
	. "github.com/smartystreets/goconvey/convey"
)

const waitTimeout = 2 * time.Second

// fakeTicker fires only when the test sends on ch.
type fakeTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }

func (f *fakeTicker) Stop() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

func (f *fakeTicker) isStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

type tickers struct {
	mu        sync.Mutex
	last      *fakeTicker
	intervals []time.Duration
}

func (ts *tickers) factory(d time.Duration) playback.Ticker {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.last = &fakeTicker{ch: make(chan time.Time)}
	ts.intervals = append(ts.intervals, d)
	return ts.last
}

func (ts *tickers) fire() bool {
	ts.mu.Lock()
	t := ts.last
	ts.mu.Unlock()
	select {
	case t.ch <- time.Now():
		return true
	case <-time.After(waitTimeout):
		return false
	}
}

// source is an in-memory DatasetSource.
type source map[model.Period]*model.Dataset

func (s source) Dataset(p model.Period) (*model.Dataset, bool) {
	d, ok := s[p]
	return d, ok
}

func datasetOf(p model.Period, keys ...string) *model.Dataset {
	d := model.NewDataset(p)
	for i, k := range keys {
		d.Put(model.Key{k}, model.Aggregate{Value: float64(i + 1)})
	}
	return d
}

type recorder struct {
	frames chan model.Frame
	err    error
}

func newRecorder() *recorder { return &recorder{frames: make(chan model.Frame, 32)} }

func (r *recorder) Render(_ context.Context, f model.Frame) error {
	r.frames <- f
	return r.err
}

func (r *recorder) next() (model.Frame, bool) {
	select {
	case f := <-r.frames:
		return f, true
	case <-time.After(waitTimeout):
		return model.Frame{}, false
	}
}

func months(ms ...int) []model.Period {
	out := make([]model.Period, 0, len(ms))
	for _, m := range ms {
		out = append(out, model.MonthPeriod(m))
	}
	return out
}

func waitState(c *playback.Controller, want playback.State) bool {
	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) {
		if c.State() == want {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestTicking(t *testing.T) {
	Convey("Given a controller over periods [A, B] with interval 100ms", t, func() {
		a, b := model.MonthPeriod(1), model.MonthPeriod(2)
		src := source{a: datasetOf(a, "X"), b: datasetOf(b, "X", "Y")}
		ts := &tickers{}
		rec := newRecorder()
		c := playback.New(sequence.New([]model.Period{a, b}), src, rec,
			playback.WithInterval(100*time.Millisecond),
			playback.WithTicker(ts.factory),
			playback.WithName("aqi"),
		)
		defer c.Close()

		ctx := context.Background()
		So(c.Start(ctx), ShouldBeNil)
		So(c.State(), ShouldEqual, playback.Playing)

		Convey("When three ticks fire", func() {
			var seen []model.Period
			for i := 0; i < 3; i++ {
				So(ts.fire(), ShouldBeTrue)
				f, ok := rec.next()
				So(ok, ShouldBeTrue)
				seen = append(seen, f.Period)
			}

			Convey("Then periods are B, A, B", func() {
				So(seen, ShouldResemble, []model.Period{b, a, b})
				So(ts.intervals, ShouldResemble, []time.Duration{100 * time.Millisecond})
			})
		})

		Convey("When the first tick fires", func() {
			So(ts.fire(), ShouldBeTrue)
			f, _ := rec.next()

			Convey("Then the frame carries the chart name and reconciliation", func() {
				So(f.Chart, ShouldEqual, "aqi")
				So(f.Seq, ShouldEqual, 1)
				So(len(f.Diff.Entering), ShouldEqual, 2)
				So(f.Empty, ShouldBeFalse)
				cur, ok := c.Current()
				So(ok, ShouldBeTrue)
				So(cur, ShouldResemble, b)
			})
		})

		Convey("When started twice", func() {
			So(c.Start(ctx), ShouldBeNil)

			Convey("Then only one ticker exists", func() {
				So(len(ts.intervals), ShouldEqual, 1)
			})
		})

		Convey("When stopped", func() {
			c.Stop()

			Convey("Then the ticker is released and ticks are ignored", func() {
				So(c.State(), ShouldEqual, playback.Stopped)
				So(ts.last.isStopped(), ShouldBeTrue)
				So(c.Tick(ctx), ShouldBeNil)
				So(len(rec.frames), ShouldEqual, 0)
				c.Stop()
			})
		})
	})
}

func TestWraparound(t *testing.T) {
	Convey("Given a looping controller over [1, 2, 3]", t, func() {
		ts := &tickers{}
		rec := newRecorder()
		src := source{}
		for _, p := range months(1, 2, 3) {
			src[p] = datasetOf(p, "X")
		}
		c := playback.New(sequence.New(months(3, 1, 2)), src, rec, playback.WithTicker(ts.factory))
		defer c.Close()
		So(c.Start(context.Background()), ShouldBeNil)

		Convey("Then four ticks show 2, 3, 1, 2", func() {
			var got []int
			for i := 0; i < 4; i++ {
				So(ts.fire(), ShouldBeTrue)
				f, ok := rec.next()
				So(ok, ShouldBeTrue)
				got = append(got, f.Period.Month)
			}
			So(got, ShouldResemble, []int{2, 3, 1, 2})
		})
	})

	Convey("Given a single-period controller", t, func() {
		ts := &tickers{}
		rec := newRecorder()
		p := model.MonthPeriod(5)
		c := playback.New(sequence.New([]model.Period{p}), source{p: datasetOf(p, "X", "Y")}, rec, playback.WithTicker(ts.factory))
		defer c.Close()
		So(c.Start(context.Background()), ShouldBeNil)

		Convey("Then every tick re-emits it with keys updating", func() {
			So(ts.fire(), ShouldBeTrue)
			first, _ := rec.next()
			So(len(first.Diff.Entering), ShouldEqual, 2)

			So(ts.fire(), ShouldBeTrue)
			second, _ := rec.next()
			So(second.Period, ShouldResemble, p)
			So(len(second.Diff.Updating), ShouldEqual, 2)
			So(second.Diff.Entering, ShouldBeEmpty)
			So(second.Diff.Exiting, ShouldBeEmpty)
		})
	})
}

func TestJumpAndSelect(t *testing.T) {
	Convey("Given a stopped controller showing three entities", t, func() {
		full := model.MonthPeriod(1)
		rec := newRecorder()
		c := playback.New(sequence.New(months(1, 2)), source{
			full:                 datasetOf(full, "A", "B", "C"),
			model.MonthPeriod(2): datasetOf(model.MonthPeriod(2), "B"),
		}, rec)
		ctx := context.Background()
		So(c.Show(ctx), ShouldBeNil)
		_, _ = rec.next()

		Convey("When jumping to a period with no records", func() {
			So(c.JumpTo(ctx, model.MonthPeriod(7)), ShouldBeNil)
			f, ok := rec.next()

			Convey("Then all three exit and none enter", func() {
				So(ok, ShouldBeTrue)
				So(f.Empty, ShouldBeTrue)
				So(len(f.Diff.Exiting), ShouldEqual, 3)
				So(f.Diff.Entering, ShouldBeEmpty)
				So(c.State(), ShouldEqual, playback.Stopped)
			})
		})

		Convey("When jumping to a known period", func() {
			So(c.JumpTo(ctx, model.MonthPeriod(2)), ShouldBeNil)
			f, _ := rec.next()

			Convey("Then B updates and the others exit", func() {
				So(len(f.Diff.Updating), ShouldEqual, 1)
				So(len(f.Diff.Exiting), ShouldEqual, 2)
			})
		})

		Convey("When selecting one entity", func() {
			So(c.Select(ctx, []model.Key{{"B"}}), ShouldBeNil)
			f, _ := rec.next()

			Convey("Then the current period is re-emitted filtered", func() {
				So(f.Period, ShouldResemble, full)
				So(len(f.Diff.Updating), ShouldEqual, 1)
				So(len(f.Diff.Exiting), ShouldEqual, 2)
				So(c.Status().Selected, ShouldResemble, []model.Key{{"B"}})
			})

			Convey("Then clearing the selection brings the others back", func() {
				So(c.Select(ctx, nil), ShouldBeNil)
				f, _ := rec.next()
				So(len(f.Diff.Entering), ShouldEqual, 2)
				So(c.Status().Selected, ShouldBeNil)
			})
		})
	})
}

func TestPlayOnce(t *testing.T) {
	Convey("Given a non-looping controller over [1, 2]", t, func() {
		ts := &tickers{}
		rec := newRecorder()
		src := source{}
		for _, p := range months(1, 2) {
			src[p] = datasetOf(p, "X")
		}
		c := playback.New(sequence.New(months(1, 2)), src, rec,
			playback.WithTicker(ts.factory),
			playback.WithLoop(false),
		)
		defer c.Close()
		ctx := context.Background()
		So(c.Show(ctx), ShouldBeNil)
		_, _ = rec.next()
		So(c.Start(ctx), ShouldBeNil)

		Convey("When ticking past the last period", func() {
			So(ts.fire(), ShouldBeTrue)
			f, _ := rec.next()
			So(f.Period.Month, ShouldEqual, 2)
			So(ts.fire(), ShouldBeTrue)

			Convey("Then playback stops without another frame", func() {
				So(waitState(c, playback.Stopped), ShouldBeTrue)
				So(len(rec.frames), ShouldEqual, 0)
			})

			Convey("Then starting again replays from the first period", func() {
				So(waitState(c, playback.Stopped), ShouldBeTrue)
				So(c.Start(ctx), ShouldBeNil)
				f, ok := rec.next()
				So(ok, ShouldBeTrue)
				So(f.Period.Month, ShouldEqual, 1)
			})
		})
	})
}

func TestStep(t *testing.T) {
	Convey("Given a stopped non-looping controller over [1, 2]", t, func() {
		rec := newRecorder()
		src := source{}
		for _, p := range months(1, 2) {
			src[p] = datasetOf(p, "X")
		}
		c := playback.New(sequence.New(months(1, 2)), src, rec, playback.WithLoop(false))
		ctx := context.Background()

		Convey("When stepping three times", func() {
			var seen []int
			for i := 0; i < 3; i++ {
				So(c.Step(ctx), ShouldBeNil)
				f, _ := rec.next()
				seen = append(seen, f.Period.Month)
			}

			Convey("Then it wraps and stays stopped", func() {
				So(seen, ShouldResemble, []int{2, 1, 2})
				So(c.State(), ShouldEqual, playback.Stopped)
			})
		})

		Convey("Then stepping an empty controller fails", func() {
			empty := playback.New(sequence.New(nil), src, rec)
			So(errors.Is(empty.Step(ctx), playback.ErrEmptySequence), ShouldBeTrue)
		})
	})
}

func TestControllerErrors(t *testing.T) {
	Convey("Given a controller without periods", t, func() {
		c := playback.New(sequence.New(nil), source{}, newRecorder())

		Convey("Then start and show fail with an empty sequence", func() {
			So(errors.Is(c.Start(context.Background()), playback.ErrEmptySequence), ShouldBeTrue)
			So(errors.Is(c.Show(context.Background()), sequence.ErrEmptySequence), ShouldBeTrue)
			So(c.State(), ShouldEqual, playback.Stopped)
			_, err := c.Toggle(context.Background())
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given a failing renderer", t, func() {
		rec := newRecorder()
		rec.err = errors.New("boom")
		p := model.MonthPeriod(1)
		c := playback.New(sequence.New([]model.Period{p}), source{p: datasetOf(p, "X")}, rec)

		Convey("Then the error is wrapped", func() {
			err := c.Show(context.Background())
			So(errors.Is(err, playback.ErrRender), ShouldBeTrue)
		})
	})

	Convey("Given a playing controller whose context is cancelled", t, func() {
		ts := &tickers{}
		p := model.MonthPeriod(1)
		c := playback.New(sequence.New([]model.Period{p}), source{}, newRecorder(), playback.WithTicker(ts.factory))
		ctx, cancel := context.WithCancel(context.Background())
		So(c.Start(ctx), ShouldBeNil)

		Convey("Then playback stops on its own", func() {
			cancel()
			So(waitState(c, playback.Stopped), ShouldBeTrue)
			So(c.Close(), ShouldBeNil)
		})
	})

	Convey("Given toggling", t, func() {
		ts := &tickers{}
		p := model.MonthPeriod(1)
		c := playback.New(sequence.New([]model.Period{p}), source{}, newRecorder(), playback.WithTicker(ts.factory))
		defer c.Close()

		Convey("Then it alternates between playing and stopped", func() {
			s, err := c.Toggle(context.Background())
			So(err, ShouldBeNil)
			So(s, ShouldEqual, playback.Playing)
			s, _ = c.Toggle(context.Background())
			So(s, ShouldEqual, playback.Stopped)
			So(c.Status().State, ShouldEqual, "stopped")
		})
	})
}
