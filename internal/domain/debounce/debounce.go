// Package debounce coalesces a burst of same-subject triggers into a single
// downstream action, bounded by a quiet period, a hard stack size, and an
// absolute maximum wait. It backs both the inbound keystroke-ingestion
// pipeline (C3) and the per-room broadcast fan-out (C4) — the two differ
// only in the type carried per trigger and the configured bounds.
package debounce

import (
	"sync"
	"time"
)

// Config bounds a Debouncer's coalescing behavior.
type Config struct {
	// QuietPeriod is how long the subject must go untouched before the
	// buffered triggers are flushed.
	QuietPeriod time.Duration
	// MaxStackSize forces an immediate flush once this many triggers have
	// accumulated, regardless of QuietPeriod.
	MaxStackSize int
	// MaxWait is the absolute ceiling on how long a trigger may sit
	// buffered, even under continuous activity that keeps resetting
	// QuietPeriod.
	MaxWait time.Duration
}

// Debouncer buffers values of type T pushed by Push and, once coalescing
// settles, hands the accumulated batch to the configured flush function on
// its own goroutine. A Debouncer is single-subject: callers needing one
// debouncer per key (per member, per room) hold a map of these themselves.
type Debouncer[T any] struct {
	cfg   Config
	flush func(batch []T)

	mu        sync.Mutex
	buf       []T
	timer     *time.Timer
	firstPush time.Time
	closed    bool
}

// New builds a Debouncer that calls flush with the accumulated batch
// whenever the coalescing window closes. flush runs on its own goroutine,
// never while the Debouncer's internal lock is held.
func New[T any](cfg Config, flush func(batch []T)) *Debouncer[T] {
	return &Debouncer[T]{cfg: cfg, flush: flush}
}

// Push adds value to the pending batch and (re)arms the coalescing window.
// A no-op after Shutdown.
func (d *Debouncer[T]) Push(value T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	if len(d.buf) == 0 {
		d.firstPush = time.Now()
	}
	d.buf = append(d.buf, value)

	if len(d.buf) >= d.cfg.MaxStackSize {
		d.fireLocked()
		return
	}

	d.armLocked()
}

// Flush forces an immediate flush of any pending batch, bypassing the
// quiet period. A no-op if nothing is pending.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fireLocked()
}

// Shutdown flushes any pending batch and disarms the Debouncer. Subsequent
// Push calls are ignored.
func (d *Debouncer[T]) Shutdown() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fireLocked()
	d.closed = true
}

// armLocked (re)schedules the fire timer for the earlier of the quiet
// period elapsing or the absolute max-wait deadline. Must hold d.mu.
func (d *Debouncer[T]) armLocked() {
	quietDeadline := time.Now().Add(d.cfg.QuietPeriod)
	maxDeadline := d.firstPush.Add(d.cfg.MaxWait)

	deadline := quietDeadline
	if maxDeadline.Before(deadline) {
		deadline = maxDeadline
	}
	wait := time.Until(deadline)
	if wait < 0 {
		wait = 0
	}

	if d.timer == nil {
		d.timer = time.AfterFunc(wait, d.onTimer)
		return
	}
	d.timer.Reset(wait)
}

// onTimer runs on its own goroutine when the coalescing window elapses.
func (d *Debouncer[T]) onTimer() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fireLocked()
}

// fireLocked hands the pending batch to flush and resets coalescing state.
// Must hold d.mu. A no-op if the batch is empty.
func (d *Debouncer[T]) fireLocked() {
	if d.timer != nil {
		d.timer.Stop()
	}
	if len(d.buf) == 0 {
		return
	}
	batch := d.buf
	d.buf = nil
	go d.flush(batch)
}
