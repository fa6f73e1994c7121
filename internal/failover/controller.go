// Package failover decides which playback server is active for a video.
//
// The Controller is a plain state machine owned by one event loop: it is not
// safe for concurrent use and never blocks. A Session pairs it with
// monitors and a prober, and Resolve runs a Session headless.
//
// Automatic failover walks the server list forward, one index per failure,
// and stops at the end. A server the viewer picks by hand is given one grace
// failure: the first failure after a manual selection leaves the selection
// in place in the Errored phase instead of moving on.
package failover

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"mirrorplay/internal/log"
	"mirrorplay/internal/media"
	"mirrorplay/internal/monitor"
	"mirrorplay/internal/servers"
)

// Phase is the lifecycle stage of the active attempt.
type Phase int

const (
	Loading Phase = iota
	Playing
	Errored
	Exhausted
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Playing:
		return "playing"
	case Errored:
		return "errored"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// State is a snapshot of the controller.
type State struct {
	ActiveIndex         int
	Attempted           []int // ascending
	Phase               Phase
	ManualOverrideArmed bool
	Attempt             uint64
	Err                 error // cause of the last failure, if any
}

// Step reports what a call did.
type Step struct {
	Applied bool // the state changed
	Started bool // a new attempt began and needs a monitor
}

// Controller owns the active server index for one video view.
type Controller struct {
	list     *servers.List
	entitled bool

	active    int
	attempted map[int]struct{}
	phase     Phase
	armed     bool
	attempt   uint64
	lastErr   error

	log zerolog.Logger
}

// New returns a controller in its initial state: server 0, loading, attempt 1.
func New(list *servers.List, entitled bool) *Controller {
	return &Controller{
		list:      list,
		entitled:  entitled,
		active:    0,
		attempted: make(map[int]struct{}),
		phase:     Loading,
		attempt:   1,
		log:       log.WithComponent("failover"),
	}
}

// List returns the server list the controller walks.
func (c *Controller) List() *servers.List { return c.list }

// Entitled reports whether the viewer may use gated servers.
func (c *Controller) Entitled() bool { return c.entitled }

// Attempt returns the current attempt id.
func (c *Controller) Attempt() uint64 { return c.attempt }

// Active returns the active server and its index.
func (c *Controller) Active() (media.Server, int) {
	s, _ := c.list.At(c.active)
	return s, c.active
}

// State returns a snapshot of the controller.
func (c *Controller) State() State {
	attempted := make([]int, 0, len(c.attempted))
	for i := range c.attempted {
		attempted = append(attempted, i)
	}
	sort.Ints(attempted)

	return State{
		ActiveIndex:         c.active,
		Attempted:           attempted,
		Phase:               c.phase,
		ManualOverrideArmed: c.armed,
		Attempt:             c.attempt,
		Err:                 c.lastErr,
	}
}

// Handle applies a monitor outcome. Outcomes for any attempt other than the
// current one, or arriving after the current attempt already settled, are
// ignored.
func (c *Controller) Handle(o monitor.Outcome) Step {
	if o.Attempt != c.attempt || o.Index != c.active || c.phase != Loading {
		c.log.Debug().
			Uint64("attempt", o.Attempt).
			Uint64("current", c.attempt).
			Str("result", o.Result.String()).
			Msg("ignoring stale outcome")
		return Step{}
	}

	if o.Result == monitor.Loaded {
		c.phase = Playing
		c.lastErr = nil
		c.log.Info().Int("index", c.active).Dur("elapsed", o.Elapsed).Msg("server loaded")
		return Step{Applied: true}
	}

	return c.fail(outcomeError(o))
}

// ReportPlaybackFailure records that a source which had loaded broke during
// playback. It is evaluated like an automatic failure of the active server.
func (c *Controller) ReportPlaybackFailure(attempt uint64, cause error) Step {
	if attempt != c.attempt || c.phase != Playing {
		return Step{}
	}
	if cause == nil {
		cause = errors.New("playback stopped")
	}
	return c.fail(fmt.Errorf("server %d: %w: %w", c.active, ErrCandidateFailed, cause))
}

func (c *Controller) fail(err error) Step {
	c.lastErr = err

	if c.armed {
		c.armed = false
		c.phase = Errored
		c.log.Info().Int("index", c.active).Err(err).Msg("manually selected server failed; staying")
		return Step{Applied: true}
	}

	if c.active == servers.PremiumIndex {
		// The premium source is outside the automatic sequence.
		c.phase = Errored
		c.log.Info().Err(err).Msg("premium server failed")
		return Step{Applied: true}
	}

	c.attempted[c.active] = struct{}{}
	next := c.active + 1
	if next >= c.list.Len() {
		c.phase = Exhausted
		c.lastErr = fmt.Errorf("%w: %w", ErrExhausted, err)
		c.log.Warn().Int("servers", c.list.Len()).Err(err).Msg("all servers failed")
		return Step{Applied: true}
	}

	c.log.Info().Int("from", c.active).Int("to", next).Err(err).Msg("failing over")
	c.begin(next, false)
	return Step{Applied: true, Started: true}
}

// Select switches to server i at the viewer's request. It is legal from any
// phase. Out-of-range indices and gated servers the viewer is not entitled
// to are ignored.
func (c *Controller) Select(i int) Step {
	s, ok := c.list.At(i)
	if !ok || !servers.IsSelectable(s, c.entitled) {
		c.log.Debug().Int("index", i).Msg("ignoring selection")
		return Step{}
	}
	c.log.Info().Int("index", i).Str("server", s.Name).Msg("manual selection")
	c.begin(i, true)
	return Step{Applied: true, Started: true}
}

// CanSelect reports whether Select(i) would take effect.
func (c *Controller) CanSelect(i int) error {
	s, ok := c.list.At(i)
	if !ok {
		return fmt.Errorf("server %d: %w: no such server", i, ErrNotSelectable)
	}
	if !servers.IsSelectable(s, c.entitled) {
		return fmt.Errorf("server %d (%s): %w: premium required", i, s.Name, ErrNotSelectable)
	}
	return nil
}

// Recheck probes the active server again without arming the manual
// override, so a failure this time fails over as usual. A pending manual
// grace, even one left over from a selection that is now playing, is dropped.
func (c *Controller) Recheck() Step {
	c.log.Info().Int("index", c.active).Msg("rechecking server")
	c.begin(c.active, false)
	return Step{Applied: true, Started: true}
}

func (c *Controller) begin(i int, manual bool) {
	c.active = i
	c.phase = Loading
	c.armed = manual
	c.attempt++
}
