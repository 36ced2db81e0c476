package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/wayfarer-ai/wayfarer/pkg/cache"
)

func TestKeyLayout(t *testing.T) {
	c := New(goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:0"}))
	t.Cleanup(func() { _ = c.Close() })

	if got := c.key("weather", "abc"); got != "wayfarer:cache:weather:abc" {
		t.Errorf("unexpected key: %s", got)
	}
	if got := c.pattern(""); got != "wayfarer:cache:*" {
		t.Errorf("unexpected pattern: %s", got)
	}
	if got := c.pattern("events"); got != "wayfarer:cache:events:*" {
		t.Errorf("unexpected pattern: %s", got)
	}
}

func TestNewFromURLInvalid(t *testing.T) {
	if _, err := NewFromURL("not a url"); err == nil {
		t.Error("expected error for invalid url")
	}
}

func TestSetAfterCancelSkipsServer(t *testing.T) {
	c := New(goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:0"}))
	t.Cleanup(func() { _ = c.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Set(ctx, "events", "k", []byte("v"), time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestUnreachableServerIsUnavailable(t *testing.T) {
	c := New(goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	}))
	t.Cleanup(func() { _ = c.Close() })

	_, ok, err := c.Get(context.Background(), "weather", "k")
	if ok {
		t.Error("expected miss")
	}
	if !errors.Is(err, cache.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestLiveRoundTrip(t *testing.T) {
	url := redisURL(t)
	c, err := NewFromURL(url)
	if err != nil {
		t.Fatal(err)
	}
	c.prefix = "wayfarer-test:" + t.Name()
	t.Cleanup(func() {
		_ = c.Clear(context.Background(), "")
		_ = c.Close()
	})

	ctx := context.Background()
	if err := c.Set(ctx, "weather", "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	data, ok, err := c.Get(ctx, "weather", "k")
	if err != nil || !ok || string(data) != "v" {
		t.Fatalf("unexpected get: %q %v %v", data, ok, err)
	}
	if err := c.Clear(ctx, "weather"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Get(ctx, "weather", "k"); ok {
		t.Error("expected miss after clear")
	}
}
