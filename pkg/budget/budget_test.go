package budget

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSectionShare(t *testing.T) {
	a := New(40*time.Second, 0.9)
	if a.Section() != 36*time.Second {
		t.Errorf("expected 36s, got %v", a.Section())
	}
	if a.Overall() != 40*time.Second {
		t.Errorf("expected 40s overall, got %v", a.Overall())
	}

	d := New(10*time.Second, 0)
	if d.Section() != 9*time.Second {
		t.Errorf("expected default share to give 9s, got %v", d.Section())
	}
}

func TestAttemptSplit(t *testing.T) {
	tests := []struct {
		remaining time.Duration
		attempt   int
		want      time.Duration
	}{
		{10 * time.Second, 1, 7 * time.Second},
		{3 * time.Second, 2, 3 * time.Second},
		{0, 1, 0},
		{-time.Second, 2, 0},
	}
	for _, tt := range tests {
		if got := Attempt(tt.remaining, tt.attempt, 2); got != tt.want {
			t.Errorf("Attempt(%v, %d) = %v, want %v", tt.remaining, tt.attempt, got, tt.want)
		}
	}
}

func TestRemaining(t *testing.T) {
	start := time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC)
	now := start.Add(4 * time.Second)

	if got := Remaining(context.Background(), start, 10*time.Second, now); got != 6*time.Second {
		t.Errorf("expected 6s, got %v", got)
	}
	if got := Remaining(context.Background(), start, 3*time.Second, now); got != 0 {
		t.Errorf("expected 0 when over budget, got %v", got)
	}

	ctx, cancel := context.WithDeadline(context.Background(), now.Add(2*time.Second))
	defer cancel()
	if got := Remaining(ctx, start, 10*time.Second, now); got != 2*time.Second {
		t.Errorf("expected context deadline to cap at 2s, got %v", got)
	}
}

func TestCheck(t *testing.T) {
	if err := Check(time.Second); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
	if err := Check(10 * time.Millisecond); !errors.Is(err, ErrBudgetExceeded) {
		t.Errorf("expected ErrBudgetExceeded, got %v", err)
	}
}
