package ratelimit

import (
	"context"
	"log"
	"sync"
	"time"

	"bmasia/internal/metrics"
)

type entry struct {
	count       int
	windowStart time.Time
}

// Memory is a process-local fixed-window limiter. State is lost on restart.
type Memory struct {
	mu      sync.Mutex
	entries map[string]*entry
	window  time.Duration
	max     int
	now     func() time.Time
}

// Option configures a Memory limiter
type Option func(*Memory)

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(m *Memory) { m.now = now }
}

// NewMemory creates a limiter allowing max submissions per window per key
func NewMemory(window time.Duration, max int, opts ...Option) *Memory {
	m := &Memory{
		entries: make(map[string]*entry),
		window:  window,
		max:     max,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Check counts one attempt for key. Every call counts, including rejected ones.
func (m *Memory) Check(_ context.Context, key string) Decision {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok || now.Sub(e.windowStart) > m.window {
		m.entries[key] = &entry{count: 1, windowStart: now}
		return Decision{Remaining: m.max - 1, ResetIn: m.window}
	}

	e.count++
	resetIn := m.window - now.Sub(e.windowStart)
	if e.count > m.max {
		return Decision{Limited: true, Remaining: 0, ResetIn: resetIn}
	}
	return Decision{Remaining: m.max - e.count, ResetIn: resetIn}
}

// Sweep removes entries whose window has fully elapsed and returns how many were removed
func (m *Memory) Sweep() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, e := range m.entries {
		if now.Sub(e.windowStart) > m.window {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked client keys
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Run sweeps expired entries every interval until ctx is cancelled
func (m *Memory) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := m.Sweep()
			tracked := m.Len()
			metrics.SetRateLimiterClients(tracked)
			if removed > 0 {
				log.Printf("[RATELIMIT] Swept %d expired entries, %d tracked", removed, tracked)
			}
		}
	}
}
