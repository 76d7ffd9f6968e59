package clock

import (
	"slices"
	"sync"
	"time"
)

// FakeClock is a Clock whose time moves only when Advance is called.
// It is safe for concurrent use.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []*waiter
}

type waiter struct {
	deadline time.Time
	ch       chan time.Time
	interval time.Duration // non-zero for tickers
	stopped  bool
}

// Fake returns a FakeClock starting at initial.
func Fake(initial time.Time) *FakeClock {
	return &FakeClock{now: initial}
}

// Now returns the fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// After returns a channel that receives once the clock has been advanced by
// at least d. Non-positive durations fire immediately.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.now
		return ch
	}
	c.waiters = append(c.waiters, &waiter{deadline: c.now.Add(d), ch: ch})
	return ch
}

// NewTicker returns a ticker that fires every d of fake time.
func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	w := &waiter{deadline: c.now.Add(d), ch: make(chan time.Time, 1), interval: d}
	c.waiters = append(c.waiters, w)
	return &Ticker{C: w.ch, stop: func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		w.stopped = true
	}}
}

// Advance moves the clock forward by d and fires every waiter whose deadline
// has passed, in deadline order. Tickers fire once per elapsed interval;
// ticks that do not fit in the channel are dropped.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	slices.SortFunc(c.waiters, func(a, b *waiter) int { return a.deadline.Compare(b.deadline) })
	kept := c.waiters[:0]
	for _, w := range c.waiters {
		if w.stopped {
			continue
		}
		for !w.deadline.After(c.now) {
			select {
			case w.ch <- w.deadline:
			default:
			}
			if w.interval == 0 {
				w.stopped = true
				break
			}
			w.deadline = w.deadline.Add(w.interval)
		}
		if !w.stopped {
			kept = append(kept, w)
		}
	}
	c.waiters = kept
}

// Pending returns the number of timers and tickers waiting to fire.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}
