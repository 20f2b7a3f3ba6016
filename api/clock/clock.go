// Package clock is the tick source behind countdown timers.
//
// Code that needs time takes a Clock instead of calling the time
// package directly. Binaries pass Real(); tests pass Fake() and move
// time forward with Advance, so a countdown can be driven tick by tick
// without sleeping.
package clock

import "time"

// Clock abstracts the time operations used by the countdown packages.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time once d
	// has elapsed. If d <= 0 the channel receives immediately.
	After(d time.Duration) <-chan time.Time

	// AfterFunc calls f once d has elapsed. The returned Timer cancels
	// the pending call with Stop.
	AfterFunc(d time.Duration, f func()) *Timer

	// NewTicker delivers ticks on C every d. Panics if d <= 0.
	NewTicker(d time.Duration) *Ticker
}

// Ticker wraps a periodic timer. The C channel has capacity 1; ticks
// are dropped, not queued, when the reader falls behind.
type Ticker struct {
	C <-chan time.Time

	stopFunc func()
}

// Stop turns off the ticker. C is not closed.
func (t *Ticker) Stop() { t.stopFunc() }

// Timer is a pending AfterFunc call.
type Timer struct {
	stopFunc func() bool
}

// Stop prevents the call from happening. It reports whether the call
// was still pending.
func (t *Timer) Stop() bool { return t.stopFunc() }
