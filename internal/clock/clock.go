// Package clock abstracts time so that timestamps, reconnect backoff and
// heartbeats can be driven deterministically in tests.
package clock

import "time"

// Clock is the subset of the time package used by fontogether.
// Production code uses Real; tests use Fake.
type Clock interface {
	Now() time.Time
	// After returns a channel that receives once d has elapsed.
	After(d time.Duration) <-chan time.Time
	// NewTicker returns a ticker firing every d. Panics if d <= 0.
	NewTicker(d time.Duration) *Ticker
}

// Ticker delivers ticks on C until stopped. C has capacity 1; ticks are
// dropped when the consumer falls behind.
type Ticker struct {
	C    <-chan time.Time
	stop func()
}

// Stop turns the ticker off. It does not close C.
func (t *Ticker) Stop() { t.stop() }

// Real returns the wall clock.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func (realClock) NewTicker(d time.Duration) *Ticker {
	t := time.NewTicker(d)
	return &Ticker{C: t.C, stop: t.Stop}
}
