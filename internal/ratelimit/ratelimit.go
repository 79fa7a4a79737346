// Package ratelimit implements a process-local fixed-window request limiter.
package ratelimit

import (
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int
}

// Limiter counts calls per identifier inside fixed windows. The window for an
// identifier opens on its first call and is replaced once it has elapsed.
type Limiter struct {
	mu      sync.Mutex
	now     func() time.Time
	windows map[string]*window
}

// New returns a Limiter; a nil clock means time.Now.
func New(now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	return &Limiter{now: now, windows: make(map[string]*window)}
}

// Allow records a call for identifier and reports whether it fits in the
// current window.
func (l *Limiter) Allow(identifier string, maxRequests int, per time.Duration) bool {
	ok, _ := l.Reserve(identifier, maxRequests, per)
	return ok
}

// Reserve is Allow that also returns how long until the window resets.
func (l *Limiter) Reserve(identifier string, maxRequests int, per time.Duration) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[identifier]
	if !ok || now.Sub(w.start) >= per {
		w = &window{start: now}
		l.windows[identifier] = w
	}
	reset := w.start.Add(per).Sub(now)
	if w.count >= maxRequests {
		return false, reset
	}
	w.count++
	return true, reset
}

// Sweep drops windows older than maxAge and returns how many were removed.
func (l *Limiter) Sweep(maxAge time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	n := 0
	for id, w := range l.windows {
		if now.Sub(w.start) >= maxAge {
			delete(l.windows, id)
			n++
		}
	}
	return n
}

func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
