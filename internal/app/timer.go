package app

import (
	"sync"
	"time"
)

// Timer is a countdown ticking once per interval while active. Reaching zero
// stops the timer, fires onExpire exactly once, and never goes negative.
// Every Reset, Pause, or Stop bumps an epoch; a tick goroutine holding an old
// epoch discards itself, so no callback fires after the owner moved on.
type Timer struct {
	mu        sync.Mutex
	duration  int // configured seconds
	remaining int
	active    bool
	fired     bool
	epoch     uint64
	interval  time.Duration
	onExpire  func()
	onTick    func(remaining int)
}

// NewTimer builds a countdown over duration seconds ticking every second.
func NewTimer(duration int, onExpire func()) *Timer {
	return NewTimerWithInterval(duration, time.Second, onExpire)
}

// NewTimerWithInterval is used by tests to shrink the tick period.
func NewTimerWithInterval(duration int, interval time.Duration, onExpire func()) *Timer {
	if duration < 0 {
		duration = 0
	}
	return &Timer{
		duration:  duration,
		remaining: duration,
		interval:  interval,
		onExpire:  onExpire,
	}
}

// SetTickFunc registers an observer invoked after every tick with the
// remaining seconds. Must be called before Start.
func (t *Timer) SetTickFunc(fn func(remaining int)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onTick = fn
}

// Start begins ticking. Starting an already-active or expired timer is a
// no-op.
func (t *Timer) Start() {
	t.mu.Lock()
	if t.active || t.remaining <= 0 {
		t.mu.Unlock()
		return
	}
	t.active = true
	t.epoch++
	epoch := t.epoch
	t.mu.Unlock()
	go t.run(epoch)
}

// Pause stops ticking without resetting the remaining time.
func (t *Timer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = false
	t.epoch++
}

// Resume continues ticking from the remaining time.
func (t *Timer) Resume() { t.Start() }

// Stop deactivates the timer and invalidates any in-flight tick.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = false
	t.epoch++
}

// Reset pushes a new duration, restores the full remaining time, and applies
// the caller's explicit active flag. The timer never infers its duration.
func (t *Timer) Reset(duration int, active bool) {
	t.mu.Lock()
	if duration < 0 {
		duration = 0
	}
	t.duration = duration
	t.remaining = duration
	t.fired = false
	t.active = false
	t.epoch++
	t.mu.Unlock()
	if active {
		t.Start()
	}
}

// Remaining returns the seconds left on the countdown.
func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Active reports whether the timer is ticking.
func (t *Timer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

func (t *Timer) run(epoch uint64) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for range ticker.C {
		expire, tick, remaining, done := t.step(epoch)
		if tick != nil {
			tick(remaining)
		}
		if expire != nil {
			expire()
		}
		if done {
			return
		}
	}
}

// step applies one tick for the given epoch. It returns the callbacks to run
// outside the lock and whether the ticking goroutine should exit.
func (t *Timer) step(epoch uint64) (expire func(), tick func(int), remaining int, done bool) {
	t.mu.Lock()
	if t.epoch != epoch || !t.active {
		t.mu.Unlock()
		return nil, nil, 0, true
	}
	if t.remaining > 0 {
		t.remaining--
	}
	remaining = t.remaining
	tick = t.onTick
	if t.remaining > 0 {
		t.mu.Unlock()
		return nil, tick, remaining, false
	}
	t.active = false
	if !t.fired {
		t.fired = true
		expire = t.onExpire
	}
	t.mu.Unlock()
	return expire, tick, remaining, true
}
