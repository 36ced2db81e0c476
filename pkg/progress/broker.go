package progress

import (
	"context"
	"sync"

	"github.com/wayfarer-ai/wayfarer/pkg/models"
)

// Broker relays progress events to observers of a run.
type Broker interface {
	Subscribe(runID string) chan models.ProgressEvent
	Unsubscribe(runID string, ch chan models.ProgressEvent)
	Publish(ctx context.Context, runID string, evt models.ProgressEvent) error
}

// MemoryBroker is an in-process Broker. Slow subscribers miss events rather
// than stalling publishers.
type MemoryBroker struct {
	mu   sync.Mutex
	subs map[string]map[chan models.ProgressEvent]struct{}
}

// NewMemoryBroker creates an empty MemoryBroker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: map[string]map[chan models.ProgressEvent]struct{}{}}
}

// Subscribe registers a buffered channel for runID.
func (b *MemoryBroker) Subscribe(runID string) chan models.ProgressEvent {
	ch := make(chan models.ProgressEvent, 16)
	b.mu.Lock()
	if b.subs[runID] == nil {
		b.subs[runID] = map[chan models.ProgressEvent]struct{}{}
	}
	b.subs[runID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes ch.
func (b *MemoryBroker) Unsubscribe(runID string, ch chan models.ProgressEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m := b.subs[runID]
	if m == nil {
		return
	}
	if _, ok := m[ch]; !ok {
		return
	}
	delete(m, ch)
	if len(m) == 0 {
		delete(b.subs, runID)
	}
	close(ch)
}

// Publish delivers evt to every subscriber of runID without blocking.
func (b *MemoryBroker) Publish(_ context.Context, runID string, evt models.ProgressEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[runID] {
		select {
		case ch <- evt:
		default:
		}
	}
	return nil
}

// BrokerSink publishes every event of a run to a Broker.
type BrokerSink struct {
	broker  Broker
	onError func(error)
}

// NewBrokerSink creates a BrokerSink. onError may be nil.
func NewBrokerSink(b Broker, onError func(error)) *BrokerSink {
	return &BrokerSink{broker: b, onError: onError}
}

// Emit implements Sink.
func (s *BrokerSink) Emit(evt models.ProgressEvent) {
	if err := s.broker.Publish(context.Background(), evt.RunID, evt); err != nil && s.onError != nil {
		s.onError(err)
	}
}
