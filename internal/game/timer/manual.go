package timer

import (
	"sort"
	"time"
)

// Manual is a deterministic Scheduler driven by explicit Advance calls.
// Simulations and tests use it to run a whole battle without sleeping.
//
// Callbacks due at the same instant run in the order they were scheduled.
// Not safe for concurrent use.
type Manual struct {
	now     time.Duration
	nextID  int64
	pending []*manualEntry
}

type manualEntry struct {
	id      int64
	due     time.Duration
	fn      func()
	stopped bool
}

func (e *manualEntry) Stop() { e.stopped = true }

// NewManual creates a Manual scheduler at time zero.
func NewManual() *Manual {
	return &Manual{}
}

// Now returns the elapsed virtual time.
func (m *Manual) Now() time.Duration { return m.now }

// After implements Scheduler. A negative d is treated as zero.
func (m *Manual) After(d time.Duration, fn func()) Handle {
	if d < 0 {
		d = 0
	}
	m.nextID++
	e := &manualEntry{id: m.nextID, due: m.now + d, fn: fn}
	m.pending = append(m.pending, e)
	return e
}

// Pending returns how many live callbacks are waiting.
func (m *Manual) Pending() int {
	n := 0
	for _, e := range m.pending {
		if !e.stopped {
			n++
		}
	}
	return n
}

// Advance moves virtual time forward by d, running every callback that falls due,
// including callbacks scheduled by other callbacks within the window.
//
// Postcondition: Returns the number of callbacks run.
func (m *Manual) Advance(d time.Duration) int {
	target := m.now + d
	ran := 0
	for {
		e := m.popDue(target)
		if e == nil {
			break
		}
		m.now = e.due
		e.fn()
		ran++
	}
	m.now = target
	return ran
}

// RunUntilIdle keeps advancing to the next due callback until none remain or
// limit callbacks have run.
//
// Postcondition: Returns the number of callbacks run.
func (m *Manual) RunUntilIdle(limit int) int {
	ran := 0
	for ran < limit {
		e := m.popDue(-1)
		if e == nil {
			break
		}
		if e.due > m.now {
			m.now = e.due
		}
		e.fn()
		ran++
	}
	return ran
}

// popDue removes and returns the earliest live entry due at or before target.
// A negative target accepts any due time.
func (m *Manual) popDue(target time.Duration) *manualEntry {
	live := m.pending[:0]
	for _, e := range m.pending {
		if !e.stopped {
			live = append(live, e)
		}
	}
	m.pending = live
	if len(m.pending) == 0 {
		return nil
	}
	sort.SliceStable(m.pending, func(i, j int) bool {
		if m.pending[i].due != m.pending[j].due {
			return m.pending[i].due < m.pending[j].due
		}
		return m.pending[i].id < m.pending[j].id
	})
	first := m.pending[0]
	if target >= 0 && first.due > target {
		return nil
	}
	m.pending = m.pending[1:]
	return first
}
