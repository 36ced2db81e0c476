package cache

import (
	"context"
	"testing"
	"time"
)

func TestDefaultTTLs(t *testing.T) {
	ttls := DefaultTTLs()
	tests := map[string]time.Duration{
		"weather":        3 * time.Hour,
		"events":         12 * time.Hour,
		"itinerary":      24 * time.Hour,
		"restaurants":    7 * 24 * time.Hour,
		"attractions":    7 * 24 * time.Hour,
		"neighborhoods":  30 * 24 * time.Hour,
		"practical_info": 30 * 24 * time.Hour,
	}
	for ns, want := range tests {
		if got := ttls.For(ns); got != want {
			t.Errorf("%s: expected %v, got %v", ns, want, got)
		}
	}
	if got := ttls.For("unknown"); got != DefaultTTL {
		t.Errorf("expected default TTL for unknown namespace, got %v", got)
	}
}

func TestCheckWrite(t *testing.T) {
	if err := CheckWrite(context.Background(), time.Minute); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := CheckWrite(context.Background(), 0); err == nil {
		t.Error("expected error for zero ttl")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := CheckWrite(ctx, time.Minute); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
