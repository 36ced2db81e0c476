package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/wayfarer-ai/wayfarer/pkg/models"
)

// RedisBroker implements Broker over Redis Pub/Sub so progress published by
// one instance reaches observers connected to another.
type RedisBroker struct {
	rdb *redis.Client
	mu  sync.Mutex
	ps  map[chan models.ProgressEvent]*redis.PubSub
}

// NewRedisBroker connects using a redis:// URL.
func NewRedisBroker(url string) (*RedisBroker, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisBroker{rdb: redis.NewClient(opt), ps: map[chan models.ProgressEvent]*redis.PubSub{}}, nil
}

// Subscribe starts relaying messages for runID onto a new channel.
func (b *RedisBroker) Subscribe(runID string) chan models.ProgressEvent {
	ch := make(chan models.ProgressEvent, 16)
	ctx := context.Background()
	ps := b.rdb.Subscribe(ctx, chanName(runID))
	// wait for the subscription so events published right after are not lost
	_, _ = ps.Receive(ctx)

	b.mu.Lock()
	b.ps[ch] = ps
	b.mu.Unlock()

	go func() {
		defer close(ch)
		for msg := range ps.Channel() {
			var evt models.ProgressEvent
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err == nil {
				select {
				case ch <- evt:
				default:
				}
			}
		}
	}()
	return ch
}

// Unsubscribe closes the subscription; ch is closed once the relay drains.
func (b *RedisBroker) Unsubscribe(_ string, ch chan models.ProgressEvent) {
	b.mu.Lock()
	ps := b.ps[ch]
	delete(b.ps, ch)
	b.mu.Unlock()
	if ps != nil {
		_ = ps.Close()
	}
}

// Publish sends evt to every subscriber of runID.
func (b *RedisBroker) Publish(ctx context.Context, runID string, evt models.ProgressEvent) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	if err := b.rdb.Publish(ctx, chanName(runID), data).Err(); err != nil {
		return fmt.Errorf("publish progress: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (b *RedisBroker) Close() error {
	return b.rdb.Close()
}

func chanName(runID string) string { return "wayfarer:progress:" + runID }
