// Package debounce coalesces bursts of values into a single delayed call
// carrying the latest value.
package debounce

import (
	"sync"
	"time"
)

// DefaultInterval is the quiet period used by DefaultConfig.
const DefaultInterval = 300 * time.Millisecond

// Config holds debouncer configuration.
type Config struct {
	// Interval is the quiet period after the last Push before the value is emitted.
	Interval time.Duration
	// MaxWait bounds how long a continuous burst can postpone emission.
	// Zero disables the bound.
	MaxWait time.Duration
}

// DefaultConfig returns the configuration used for search input.
func DefaultConfig() Config {
	return Config{Interval: DefaultInterval}
}

// Debouncer delivers the most recent pushed value to fn once input has been
// quiet for the configured interval. It is safe for concurrent use.
//
// fn runs on a timer goroutine (or the Flush caller) and must not call Stop.
type Debouncer[T any] struct {
	mu        sync.Mutex
	cfg       Config
	fn        func(T)
	timer     *time.Timer
	value     T
	pending   bool
	gen       uint64
	firstSeen time.Time
	stopped   bool
	wg        sync.WaitGroup
}

// New creates a debouncer that calls fn with the settled value.
func New[T any](cfg Config, fn func(T)) *Debouncer[T] {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Debouncer[T]{cfg: cfg, fn: fn}
}

// Push records v as the pending value and restarts the quiet period.
// Any earlier pending value is discarded and will never be emitted.
func (d *Debouncer[T]) Push(v T) {
	now := time.Now()

	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.value = v
	d.gen++
	if !d.pending {
		d.firstSeen = now
	}
	d.pending = true

	if d.cfg.MaxWait > 0 && now.Sub(d.firstSeen) >= d.cfg.MaxWait {
		v, ok := d.takeLocked()
		d.mu.Unlock()
		if ok {
			go d.emit(v)
		}
		return
	}

	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.cfg.Interval, func() { d.fire(gen) })
	d.mu.Unlock()
}

// fire runs when the timer for generation gen expires. A timer that lost the
// race with a later Push, Cancel or Flush sees a newer generation and exits.
func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || !d.pending || gen != d.gen {
		d.mu.Unlock()
		return
	}
	v, _ := d.takeLocked()
	d.mu.Unlock()
	d.emit(v)
}

// takeLocked clears the pending value and registers an emission.
// Must be called with d.mu held.
func (d *Debouncer[T]) takeLocked() (T, bool) {
	var zero T
	if !d.pending {
		return zero, false
	}
	v := d.value
	d.value = zero
	d.pending = false
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.wg.Add(1)
	return v, true
}

// emit calls fn. The matching wg.Add happened in takeLocked.
func (d *Debouncer[T]) emit(v T) {
	defer d.wg.Done()
	d.fn(v)
}

// Flush emits the pending value immediately on the calling goroutine.
// It reports whether there was a value to emit.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return false
	}
	v, ok := d.takeLocked()
	d.mu.Unlock()
	if ok {
		d.emit(v)
	}
	return ok
}

// Cancel drops the pending value without emitting it.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
}

func (d *Debouncer[T]) cancelLocked() {
	var zero T
	d.value = zero
	d.pending = false
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Pending reports whether a value is waiting to be emitted.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Stop drops any pending value, waits for an emission in progress and turns
// later calls into no-ops.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.cancelLocked()
	d.mu.Unlock()
	d.wg.Wait()
}
