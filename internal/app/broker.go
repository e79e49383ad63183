package service

import (
	"sync"

	"github.com/google/uuid"

	"github.com/okian/aqframes/internal/domain/model"
	"github.com/okian/aqframes/pkg/metrics"
)

const defaultSubscriberBuffer = 16

// Subscription is a live feed of frames.
type Subscription struct {
	ID     string
	Chart  string // empty for every chart
	Frames <-chan model.Frame
}

type subscriber struct {
	chart string
	ch    chan model.Frame
}

// broker fans frames out to subscribers. A subscriber that falls behind
// misses frames rather than stalling the dispatcher.
type broker struct {
	mu     sync.RWMutex
	subs   map[string]*subscriber
	buffer int
}

func newBroker(buffer int) *broker {
	return &broker{subs: make(map[string]*subscriber), buffer: buffer}
}

func (b *broker) subscribe(chart string) Subscription {
	sub := &subscriber{chart: chart, ch: make(chan model.Frame, b.buffer)}
	id := uuid.NewString()

	b.mu.Lock()
	b.subs[id] = sub
	b.mu.Unlock()

	metrics.AddStreamSubscribers(1)
	return Subscription{ID: id, Chart: chart, Frames: sub.ch}
}

func (b *broker) unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.subs[id]
	if !ok {
		return false
	}
	delete(b.subs, id)
	close(sub.ch)
	metrics.AddStreamSubscribers(-1)
	return true
}

func (b *broker) publish(f model.Frame) { //nolint:gocritic // hugeParam: Frame is passed by value for channel semantics
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		if sub.chart != "" && sub.chart != f.Chart {
			continue
		}
		select {
		case sub.ch <- f:
		default:
			metrics.RecordErrorByComponent("stream", "subscriber_slow")
		}
	}
}

func (b *broker) len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *broker) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, sub := range b.subs {
		close(sub.ch)
		delete(b.subs, id)
		metrics.AddStreamSubscribers(-1)
	}
}
