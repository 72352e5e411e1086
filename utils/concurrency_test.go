package utils

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestURLSetNoDuplicates(t *testing.T) {
	s := NewURLSet("https://example.com/1", "https://example.com/1", "https://example.com/2")

	if s.Size() != 2 {
		t.Errorf("size: got %d, want 2", s.Size())
	}
}

func TestURLSetSeeded(t *testing.T) {
	s := NewURLSet("https://example.com/a.pdf", "https://example.com/b.pdf")

	if !s.Contains("https://example.com/a.pdf") {
		t.Error("seeded URL should be present")
	}
	if s.Contains("https://example.com/c.pdf") {
		t.Error("unseeded URL should be absent")
	}

	var nilSet *URLSet
	if nilSet.Contains("https://example.com/a.pdf") || nilSet.Size() != 0 {
		t.Error("nil set should be empty")
	}
}

func TestURLSetConcurrency(t *testing.T) {
	s := NewURLSet("https://example.com/same")
	var hits int64

	pool := NewWorkerPool(10, 0)
	for i := 0; i < 100; i++ {
		url := "https://example.com/same"
		if i%2 == 1 {
			url = "https://example.com/other"
		}
		pool.Submit(func() {
			if s.Contains(url) {
				atomic.AddInt64(&hits, 1)
			}
		})
	}
	pool.Wait()

	if hits != 50 {
		t.Errorf("expected 50 hits, got %d", hits)
	}
}

func TestWorkerPoolRateLimit(t *testing.T) {
	rateLimitMs := 50
	pool := NewWorkerPool(1, rateLimitMs)

	var (
		mu         sync.Mutex
		timestamps []time.Time
	)
	for i := 0; i < 3; i++ {
		pool.Submit(func() {
			mu.Lock()
			timestamps = append(timestamps, time.Now())
			mu.Unlock()
		})
	}
	pool.Wait()

	for i := 1; i < len(timestamps); i++ {
		gap := timestamps[i].Sub(timestamps[i-1])
		min := time.Duration(rateLimitMs) * time.Millisecond
		if gap < min {
			t.Errorf("gap between job %d and %d: %v < minimum %v", i-1, i, gap, min)
		}
	}
}

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	pool := NewWorkerPool(2, 0)

	var running, peak int64
	for i := 0; i < 8; i++ {
		pool.Submit(func() {
			n := atomic.AddInt64(&running, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&running, -1)
		})
	}
	pool.Wait()

	if peak > 2 {
		t.Errorf("peak concurrency: got %d, want <= 2", peak)
	}
}

func TestRetryDoEventuallySucceeds(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, Logger: NewNopLogger()}

	calls := 0
	err := r.Do(context.Background(), "ping", func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls: got %d, want 3", calls)
	}
}

func TestRetryDoGivesUp(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond}
	sentinel := errors.New("down")

	err := r.Do(context.Background(), "ping", func() error { return sentinel })
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped sentinel, got %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "", "WARN", "error"} {
		if _, err := NewLogger(lvl); err != nil {
			t.Errorf("NewLogger(%q): %v", lvl, err)
		}
	}
	if _, err := NewLogger("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}
