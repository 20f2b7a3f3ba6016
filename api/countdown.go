// Package countdown implements a seconds-resolution countdown timer
// with start/pause/resume/stop controls and lifecycle callbacks.
package countdown

import (
	"sync"
	"time"

	"github.com/d093w1z/countdown/api/clock"
)

// TickInterval is the fixed period between two decrements.
const TickInterval = time.Second

// ------------------- Options -------------------

// Options configures a Timer. Every callback is optional.
type Options struct {
	// Format defaults to FormatHHMMSS when empty.
	Format Format

	OnStart    func()
	OnPause    func()
	OnResume   func()
	OnComplete func()

	// OnTick receives the remaining seconds after each decrement. On the
	// completing tick it receives 0, before the reset.
	OnTick func(remaining int)

	// Clock drives the ticks. Nil means clock.Real().
	Clock clock.Clock
}

// ------------------- Timer -------------------

// Timer counts down from a fixed number of seconds. It is safe for
// concurrent use; callbacks run outside the timer's lock and may call
// back into it.
type Timer struct {
	mu        sync.Mutex
	clock     clock.Clock
	total     int
	remaining int
	source    *tickSource
	opts      Options
}

// tickSource is one armed run of ticks. Pause and Stop drop the
// current source, so a tick that was already dispatched can tell it is
// stale.
type tickSource struct {
	timer *clock.Timer
}

// New returns an idle timer holding durationSeconds. Negative
// durations are clamped to zero.
func New(durationSeconds int, opts Options) *Timer {
	if durationSeconds < 0 {
		durationSeconds = 0
	}
	if opts.Format == "" {
		opts.Format = FormatHHMMSS
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}
	return &Timer{
		clock:     clk,
		total:     durationSeconds,
		remaining: durationSeconds,
		opts:      opts,
	}
}

// Start begins ticking once per TickInterval and fires OnStart. It is a
// no-op while the timer is already running.
func (t *Timer) Start() {
	src := t.claim()
	if src == nil {
		return
	}
	call(t.opts.OnStart)
	t.schedule(src)
}

// Pause stops ticking and keeps the remaining time, then fires OnPause.
// It is a no-op unless the timer is running.
func (t *Timer) Pause() {
	t.mu.Lock()
	if t.source == nil {
		t.mu.Unlock()
		return
	}
	t.disarmLocked()
	t.mu.Unlock()

	call(t.opts.OnPause)
}

// Resume restarts ticking from the remaining time. It fires OnStart
// followed by OnResume. It is a no-op while the timer is running.
func (t *Timer) Resume() {
	src := t.claim()
	if src == nil {
		return
	}
	call(t.opts.OnStart)
	call(t.opts.OnResume)
	t.schedule(src)
}

// Stop halts ticking and resets the remaining time to the full
// duration. No callback fires. Safe to call in any state.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disarmLocked()
	t.remaining = t.total
}

// RemainingTime renders the current remaining seconds in the timer's
// format.
func (t *Timer) RemainingTime() (string, error) {
	t.mu.Lock()
	remaining, format := t.remaining, t.opts.Format
	t.mu.Unlock()
	return FormatSeconds(remaining, format)
}

// Remaining returns the seconds left in the current run.
func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Total returns the configured duration in seconds.
func (t *Timer) Total() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

// Running reports whether ticks are scheduled.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.source != nil
}

// Format returns the display format used by RemainingTime.
func (t *Timer) Format() Format {
	return t.opts.Format
}

// Snapshot is a consistent view of a timer at one instant.
type Snapshot struct {
	Remaining int
	Total     int
	Running   bool
	// Display is RemainingTime's output, or empty if the format is
	// unsupported.
	Display string
}

// Progress reports the elapsed fraction of the duration, in [0, 1].
func (s Snapshot) Progress() float64 {
	if s.Total <= 0 {
		return 0
	}
	return 1 - float64(s.Remaining)/float64(s.Total)
}

// Snapshot captures remaining, total and running under one lock.
func (t *Timer) Snapshot() Snapshot {
	t.mu.Lock()
	s := Snapshot{
		Remaining: t.remaining,
		Total:     t.total,
		Running:   t.source != nil,
	}
	format := t.opts.Format
	t.mu.Unlock()

	s.Display, _ = FormatSeconds(s.Remaining, format)
	return s
}

// claim marks the timer running with a fresh tick source. It returns
// nil when one is already active. Ticks begin once schedule is called.
func (t *Timer) claim() *tickSource {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.source != nil {
		return nil
	}
	src := &tickSource{}
	t.source = src
	return src
}

// schedule arms the first tick of src unless a Pause or Stop from a
// callback already dropped it.
func (t *Timer) schedule(src *tickSource) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.source == src && src.timer == nil {
		t.scheduleLocked(src)
	}
}

func (t *Timer) scheduleLocked(src *tickSource) {
	src.timer = t.clock.AfterFunc(TickInterval, func() { t.tick(src) })
}

func (t *Timer) disarmLocked() {
	if t.source == nil {
		return
	}
	if t.source.timer != nil {
		t.source.timer.Stop()
	}
	t.source = nil
}

// tick decrements by exactly one regardless of how late it fires.
func (t *Timer) tick(src *tickSource) {
	t.mu.Lock()
	if t.source != src {
		t.mu.Unlock()
		return
	}
	if t.remaining > 0 {
		t.remaining--
	}
	remaining := t.remaining
	completed := remaining == 0
	if completed {
		t.source = nil
		t.remaining = t.total
	} else {
		t.scheduleLocked(src)
	}
	t.mu.Unlock()

	if t.opts.OnTick != nil {
		t.opts.OnTick(remaining)
	}
	if completed {
		call(t.opts.OnComplete)
	}
}

func call(f func()) {
	if f != nil {
		f()
	}
}
