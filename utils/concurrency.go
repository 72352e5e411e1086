package utils

import (
	"sync"
	"time"
)

// WorkerPool runs jobs on a bounded number of goroutines with an optional
// minimum interval between job starts.
type WorkerPool struct {
	rateLimitMs int
	semaphore   chan struct{}
	wg          sync.WaitGroup
	mu          sync.Mutex
	lastStart   time.Time
}

// NewWorkerPool creates a WorkerPool with the given concurrency and rate limit.
// A concurrency below 1 is treated as 1.
func NewWorkerPool(maxWorkers, rateLimitMs int) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &WorkerPool{
		rateLimitMs: rateLimitMs,
		semaphore:   make(chan struct{}, maxWorkers),
	}
}

// Submit enqueues a job for execution in the pool. It blocks while all
// workers are busy.
func (wp *WorkerPool) Submit(job func()) {
	wp.wg.Add(1)
	wp.semaphore <- struct{}{}

	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.semaphore }()

		wp.enforceRateLimit()
		job()
	}()
}

// Wait blocks until all submitted jobs have completed.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

func (wp *WorkerPool) enforceRateLimit() {
	if wp.rateLimitMs <= 0 {
		return
	}
	wp.mu.Lock()
	defer wp.mu.Unlock()

	minInterval := time.Duration(wp.rateLimitMs) * time.Millisecond
	if !wp.lastStart.IsZero() {
		if elapsed := time.Since(wp.lastStart); elapsed < minInterval {
			time.Sleep(minInterval - elapsed)
		}
	}
	wp.lastStart = time.Now()
}

// URLSet is a set of origin URLs, fixed at construction and safe for
// concurrent reads.
type URLSet struct {
	seen map[string]struct{}
}

// NewURLSet creates a URLSet holding the given URLs.
func NewURLSet(urls ...string) *URLSet {
	s := &URLSet{seen: make(map[string]struct{}, len(urls))}
	for _, u := range urls {
		s.seen[u] = struct{}{}
	}
	return s
}

// Contains reports whether the URL is in the set. A nil set contains nothing.
func (s *URLSet) Contains(url string) bool {
	if s == nil {
		return false
	}
	_, exists := s.seen[url]
	return exists
}

// Size returns the number of unique URLs tracked.
func (s *URLSet) Size() int {
	if s == nil {
		return 0
	}
	return len(s.seen)
}
