package providers

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiterTryConsume(t *testing.T) {
	r := NewRateLimiter(60)

	// Full bucket at start.
	for i := 0; i < 60; i++ {
		if !r.TryConsume() {
			t.Fatalf("token %d unavailable from full bucket", i)
		}
	}
	if r.TryConsume() {
		t.Fatal("expected empty bucket")
	}
}

func TestRateLimiterWaitCancellation(t *testing.T) {
	r := NewRateLimiter(60)
	for r.TryConsume() {
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := r.Wait(ctx); err == nil {
		t.Fatal("expected context error from empty bucket")
	}
}

func TestRateLimiterRecord429(t *testing.T) {
	r := NewRateLimiter(60)
	r.Record429(5 * time.Second)

	if r.TryConsume() {
		t.Fatal("bucket should be drained after 429 with retry-after")
	}
	status := r.Status()
	if status.Last429Time.IsZero() {
		t.Error("429 time not recorded")
	}
}

func TestRateLimiterStatus(t *testing.T) {
	r := NewRateLimiter(100)
	for i := 0; i < 30; i++ {
		r.TryConsume()
	}

	status := r.Status()
	if status.TokensLimit != 100 {
		t.Errorf("limit %d", status.TokensLimit)
	}
	if status.TotalConsumed != 30 {
		t.Errorf("consumed %d", status.TotalConsumed)
	}
	if status.Utilization <= 0 {
		t.Errorf("utilization %f", status.Utilization)
	}
}
