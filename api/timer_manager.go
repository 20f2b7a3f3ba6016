package countdown

import (
	"sync"

	"github.com/d093w1z/countdown/api/clock"
)

// DefaultStep is how many seconds Inc and Dec add or remove.
const DefaultStep = 5

// TimerManager owns one Timer on behalf of frontends. It fans every
// tick and transition out to subscribers and lets the configured
// duration be adjusted while the timer is idle.
type TimerManager struct {
	// ctrl serialises control calls and guards timer.
	ctrl  sync.Mutex
	timer *Timer

	mu        sync.Mutex
	subs      []chan Snapshot
	hooks     []func()
	lastValue Snapshot
	doneCh    chan struct{}
	completed bool
	closed    bool

	clock  clock.Clock
	format Format
	step   int
}

// NewTimerManager builds a manager for a timer of seconds. format must
// be one of the supported formats.
func NewTimerManager(seconds int, format Format, clk clock.Clock) (*TimerManager, error) {
	if _, err := FormatSeconds(0, format); err != nil {
		return nil, err
	}
	tm := &TimerManager{
		clock:  clk,
		format: format,
		step:   DefaultStep,
		doneCh: make(chan struct{}),
	}
	tm.timer = tm.newTimer(seconds)
	tm.lastValue = tm.timer.Snapshot()
	return tm, nil
}

func (t *TimerManager) newTimer(seconds int) *Timer {
	var timer *Timer
	publish := func() { t.publish(timer) }
	timer = New(seconds, Options{
		Format:     t.format,
		Clock:      t.clock,
		OnStart:    publish,
		OnPause:    publish,
		OnTick:     func(int) { publish() },
		OnComplete: func() { t.complete(timer) },
	})
	return timer
}

// SetStep changes the Inc/Dec step. Non-positive values are ignored.
func (t *TimerManager) SetStep(seconds int) {
	if seconds <= 0 {
		return
	}
	t.ctrl.Lock()
	t.step = seconds
	t.ctrl.Unlock()
}

// --- Subscriptions ---

// Subscribe returns a channel that receives a Snapshot on every tick
// and transition. Values are dropped when the subscriber falls behind.
func (t *TimerManager) Subscribe() <-chan Snapshot {
	ch := make(chan Snapshot, 10)
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		close(ch)
		return ch
	}
	t.subs = append(t.subs, ch)
	return ch
}

// Unsubscribe removes and closes a channel returned by Subscribe.
// Unknown channels are ignored.
func (t *TimerManager) Unsubscribe(ch <-chan Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, sub := range t.subs {
		if sub == ch {
			t.subs = append(t.subs[:i], t.subs[i+1:]...)
			close(sub)
			return
		}
	}
}

// OnComplete registers f to run after every natural completion.
func (t *TimerManager) OnComplete(f func()) {
	t.mu.Lock()
	t.hooks = append(t.hooks, f)
	t.mu.Unlock()
}

func (t *TimerManager) publish(timer *Timer) {
	s := timer.Snapshot()
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.lastValue = s
	for _, ch := range t.subs {
		select {
		case ch <- s:
		default: // drop if slow
		}
	}
}

func (t *TimerManager) complete(timer *Timer) {
	t.mu.Lock()
	if !t.completed {
		close(t.doneCh)
		t.completed = true
	}
	hooks := append([]func(){}, t.hooks...)
	t.mu.Unlock()

	t.publish(timer)
	for _, hook := range hooks {
		hook()
	}
}

// --- Control methods ---

func (t *TimerManager) Start() {
	t.ctrl.Lock()
	defer t.ctrl.Unlock()
	t.rearmDone()
	t.timer.Start()
}

func (t *TimerManager) Pause() {
	t.ctrl.Lock()
	defer t.ctrl.Unlock()
	t.timer.Pause()
}

func (t *TimerManager) Resume() {
	t.ctrl.Lock()
	defer t.ctrl.Unlock()
	t.rearmDone()
	t.timer.Resume()
}

func (t *TimerManager) Stop() {
	t.ctrl.Lock()
	defer t.ctrl.Unlock()
	t.timer.Stop()
	t.publish(t.timer)
}

// Toggle pauses a running timer, resumes a paused one and starts an
// idle one.
func (t *TimerManager) Toggle() {
	t.ctrl.Lock()
	defer t.ctrl.Unlock()

	s := t.timer.Snapshot()
	switch {
	case s.Running:
		t.timer.Pause()
	case s.Remaining < s.Total:
		t.rearmDone()
		t.timer.Resume()
	default:
		t.rearmDone()
		t.timer.Start()
	}
}

// Inc lengthens the configured duration by one step. It only applies
// to an idle timer sitting at its full duration and reports whether it
// did.
func (t *TimerManager) Inc() bool {
	return t.adjust(1)
}

// Dec shortens the configured duration by one step, never below zero.
func (t *TimerManager) Dec() bool {
	return t.adjust(-1)
}

func (t *TimerManager) adjust(direction int) bool {
	t.ctrl.Lock()
	s := t.timer.Snapshot()
	if s.Running || s.Remaining != s.Total {
		t.ctrl.Unlock()
		return false
	}
	total := s.Total + direction*t.step
	if total < 0 {
		total = 0
	}
	t.timer = t.newTimer(total)
	timer := t.timer
	t.ctrl.Unlock()

	t.publish(timer)
	return true
}

// rearmDone swaps in a fresh done channel once the previous run has
// completed. Must be called with ctrl held.
func (t *TimerManager) rearmDone() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.completed {
		t.doneCh = make(chan struct{})
		t.completed = false
	}
}

// --- Accessors ---

// Snapshot returns the last published value.
func (t *TimerManager) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastValue
}

// Current returns the live state of the managed timer.
func (t *TimerManager) Current() Snapshot {
	t.ctrl.Lock()
	defer t.ctrl.Unlock()
	return t.timer.Snapshot()
}

// Done is closed when the current run completes naturally.
func (t *TimerManager) Done() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.doneCh
}

// Close stops the timer and closes every subscriber channel.
func (t *TimerManager) Close() {
	t.ctrl.Lock()
	t.timer.Stop()
	t.ctrl.Unlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	for _, ch := range t.subs {
		close(ch)
	}
	t.subs = nil
}
