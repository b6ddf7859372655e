package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 2 {
		t.Errorf("expected default burst 2 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "http://example.com/foo"); err != nil {
		t.Errorf("wait failed: %v", err)
	}

	// Different domain should also work
	if err := limiter.Wait(ctx, "http://other.example.org"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_WaitWithDelay(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	start := time.Now()
	if err := limiter.WaitWithDelay(ctx, "http://example.com", 50*time.Millisecond); err != nil {
		t.Fatalf("WaitWithDelay failed: %v", err)
	}

	if d := time.Since(start); d < 50*time.Millisecond {
		t.Errorf("expected delay >= 50ms, got %v", d)
	}
}

func TestLimiter_Allow(t *testing.T) {
	limiter := NewLimiter(1, 1)
	url := "http://example.com"

	if !limiter.Allow(url) {
		t.Error("expected first request to be allowed")
	}
	if limiter.Allow(url) {
		t.Error("expected second immediate request to be blocked at 1 rps")
	}

	// Other domains have their own budget
	if !limiter.Allow("http://other.example.org") {
		t.Error("expected fresh domain to be allowed")
	}
}

func TestLimiter_SetDomainRate(t *testing.T) {
	limiter := NewLimiter(1, 1)
	limiter.SetDomainRate("fast.example.com", 1000, 10)

	allowed := 0
	for i := 0; i < 5; i++ {
		if limiter.Allow("http://fast.example.com/page") {
			allowed++
		}
	}
	if allowed != 5 {
		t.Errorf("expected custom rate to allow 5 quick requests, got %d", allowed)
	}
}

func TestLimiter_InvalidURL(t *testing.T) {
	limiter := NewLimiter(10, 1)

	if limiter.Allow("://not-a-url") {
		t.Error("expected invalid URL to be denied")
	}
}

func TestPacer_Disabled(t *testing.T) {
	ctx := context.Background()

	var nilPacer *Pacer
	if err := nilPacer.Wait(ctx); err != nil {
		t.Errorf("nil pacer should be a no-op, got %v", err)
	}

	disabled := NewPacer(0)
	start := time.Now()
	for i := 0; i < 10; i++ {
		if err := disabled.Wait(ctx); err != nil {
			t.Fatalf("disabled pacer wait failed: %v", err)
		}
	}
	if d := time.Since(start); d > 10*time.Millisecond {
		t.Errorf("disabled pacer should not block, took %v", d)
	}
}

func TestPacer_SpacesCalls(t *testing.T) {
	pacer := NewPacer(30 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := pacer.Wait(ctx); err != nil {
			t.Fatalf("pacer wait failed: %v", err)
		}
	}

	// First call is immediate, the next two pay the interval
	if d := time.Since(start); d < 60*time.Millisecond {
		t.Errorf("expected >= 60ms for 3 paced calls, got %v", d)
	}
}

func TestPacer_ContextCancellation(t *testing.T) {
	pacer := NewPacer(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// Burn the initial token, then the second wait must block until cancel
	if err := pacer.Wait(ctx); err != nil {
		t.Fatalf("first wait failed: %v", err)
	}
	if err := pacer.Wait(ctx); err == nil {
		t.Error("expected context cancellation error")
	}
}
