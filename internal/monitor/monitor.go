// Package monitor watches a single playback attempt and classifies how it
// ended. A Monitor reports exactly one Outcome: whichever of loaded, errored
// or timed out happens first. Every later signal is dropped.
package monitor

import (
	"fmt"
	"sync"
	"time"
)

// DefaultTimeout is how long an embed gets to report before it is treated
// as blocked. Framing denials never fire a load or error signal.
const DefaultTimeout = 10 * time.Second

// Result is the terminal classification of an attempt.
type Result int

const (
	Loaded Result = iota
	Errored
	TimedOut
)

func (r Result) String() string {
	switch r {
	case Loaded:
		return "loaded"
	case Errored:
		return "errored"
	case TimedOut:
		return "timed out"
	default:
		return "unknown"
	}
}

// Outcome is delivered once per attempt.
type Outcome struct {
	Attempt uint64 // attempt id the monitor was created for
	Index   int    // candidate index being watched
	Result  Result
	Err     error // cause for Errored; nil otherwise
	Elapsed time.Duration
}

func (o Outcome) String() string {
	if o.Err != nil {
		return fmt.Sprintf("attempt %d server %d %s after %s: %v", o.Attempt, o.Index, o.Result, o.Elapsed, o.Err)
	}
	return fmt.Sprintf("attempt %d server %d %s after %s", o.Attempt, o.Index, o.Result, o.Elapsed)
}

// Monitor is a single-use watcher for one attempt. Create a new one for each
// attempt; a settled or disposed Monitor ignores everything.
type Monitor struct {
	attempt uint64
	index   int
	clock   Clock
	started time.Time
	deliver func(Outcome)

	mu      sync.Mutex
	settled bool
	timer   Timer
}

// New starts watching an attempt. deliver is called at most once, from
// whichever goroutine settles the monitor first.
func New(attempt uint64, index int, timeout time.Duration, clock Clock, deliver func(Outcome)) *Monitor {
	if clock == nil {
		clock = SystemClock()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	m := &Monitor{
		attempt: attempt,
		index:   index,
		clock:   clock,
		started: clock.Now(),
		deliver: deliver,
	}

	// Holding mu keeps a very early timer from settling before m.timer is set.
	m.mu.Lock()
	m.timer = clock.AfterFunc(timeout, func() { m.settle(TimedOut, nil) })
	m.mu.Unlock()

	return m
}

// Attempt returns the attempt id this monitor belongs to.
func (m *Monitor) Attempt() uint64 { return m.attempt }

// Index returns the candidate index being watched.
func (m *Monitor) Index() int { return m.index }

// Loaded reports a successful load. It returns false when the monitor had
// already settled or been disposed.
func (m *Monitor) Loaded() bool {
	return m.settle(Loaded, nil)
}

// Errored reports a load failure.
func (m *Monitor) Errored(err error) bool {
	return m.settle(Errored, err)
}

// Settled reports whether the monitor is inert.
func (m *Monitor) Settled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settled
}

// Dispose stops the timer and makes the monitor inert without delivering
// anything. Safe to call any number of times.
func (m *Monitor) Dispose() {
	m.mu.Lock()
	m.settled = true
	t := m.timer
	m.timer = nil
	m.mu.Unlock()

	if t != nil {
		t.Stop()
	}
}

func (m *Monitor) settle(r Result, err error) bool {
	m.mu.Lock()
	if m.settled {
		m.mu.Unlock()
		return false
	}
	m.settled = true
	t := m.timer
	m.timer = nil
	m.mu.Unlock()

	if t != nil {
		t.Stop()
	}

	if m.deliver != nil {
		m.deliver(Outcome{
			Attempt: m.attempt,
			Index:   m.index,
			Result:  r,
			Err:     err,
			Elapsed: m.clock.Now().Sub(m.started),
		})
	}
	return true
}
