// Package timer provides the cooperative waits a battle uses for pacing:
// minimum drag duration, draw/discard pacing and post-action delays.
//
// Nothing here blocks. A Scheduler arranges for a callback to run later; the
// callback always runs on the battle's own event-processing loop.
package timer

import (
	"sync"
	"time"
)

// Handle cancels a scheduled callback.
type Handle interface {
	// Stop prevents the callback from running. Safe to call multiple times.
	Stop()
}

// Scheduler runs fn once after d has elapsed.
type Scheduler interface {
	After(d time.Duration, fn func()) Handle
}

// wallTimer is the Handle RealTime returns. Stop wins over a callback that
// already fired but has not yet been run by the loop.
type wallTimer struct {
	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// Stop implements Handle.
func (t *wallTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	t.timer.Stop()
}

func (t *wallTimer) guard(onFire func()) func() {
	return func() {
		if !t.isStopped() {
			onFire()
		}
	}
}

func (t *wallTimer) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// RealTime schedules on the wall clock and hands each due callback to post,
// which must enqueue it onto the battle loop.
type RealTime struct {
	post func(func())
}

// NewRealTime creates a wall-clock Scheduler.
//
// Precondition: post must not be nil.
func NewRealTime(post func(func())) *RealTime {
	if post == nil {
		panic("timer.NewRealTime: post must not be nil")
	}
	return &RealTime{post: post}
}

// After implements Scheduler.
func (r *RealTime) After(d time.Duration, fn func()) Handle {
	t := &wallTimer{}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timer = time.AfterFunc(d, t.guard(func() {
		r.post(func() {
			// a Stop between firing and the loop picking the callback up still wins
			if !t.isStopped() {
				fn()
			}
		})
	}))
	return t
}
