package catalog

import (
	"context"
	"sync"
	"time"
)

const (
	defaultWindow       = time.Minute
	defaultPollInterval = 250 * time.Millisecond
)

// SlidingWindow admits at most limit acquisitions within any rolling window.
// It is safe for concurrent use.
type SlidingWindow struct {
	limit  int
	window time.Duration
	poll   time.Duration

	mu     sync.Mutex
	opened []time.Time
	now    func() time.Time
}

// NewSlidingWindow builds a limiter admitting limit requests per window. Blocked
// callers re-check capacity every poll interval.
func NewSlidingWindow(limit int, window, poll time.Duration) *SlidingWindow {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = defaultWindow
	}
	if poll <= 0 {
		poll = defaultPollInterval
	}
	return &SlidingWindow{
		limit:  limit,
		window: window,
		poll:   poll,
		now:    time.Now,
	}
}

// Acquire blocks until the window has capacity or ctx is done. It returns how
// long the caller waited.
func (w *SlidingWindow) Acquire(ctx context.Context) (time.Duration, error) {
	start := w.now()
	for {
		if w.tryAcquire() {
			return w.now().Sub(start), nil
		}
		timer := time.NewTimer(w.poll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return w.now().Sub(start), ctx.Err()
		case <-timer.C:
		}
	}
}

// Open reports how many requests currently count against the window.
func (w *SlidingWindow) Open() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pruneLocked(w.now())
	return len(w.opened)
}

func (w *SlidingWindow) tryAcquire() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := w.now()
	w.pruneLocked(now)
	if len(w.opened) >= w.limit {
		return false
	}
	w.opened = append(w.opened, now)
	return true
}

func (w *SlidingWindow) pruneLocked(now time.Time) {
	cutoff := now.Add(-w.window)
	keep := 0
	for keep < len(w.opened) && !w.opened[keep].After(cutoff) {
		keep++
	}
	if keep > 0 {
		w.opened = append(w.opened[:0], w.opened[keep:]...)
	}
}
