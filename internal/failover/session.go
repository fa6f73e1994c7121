package failover

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"mirrorplay/internal/log"
	"mirrorplay/internal/media"
	"mirrorplay/internal/monitor"
)

// Prober checks whether a server can be played. A nil error counts as a
// load signal, anything else as an error signal. Probe must return promptly
// once ctx is cancelled.
type Prober interface {
	Probe(ctx context.Context, s media.Server) error
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context, s media.Server) error

// Probe calls f.
func (f ProberFunc) Probe(ctx context.Context, s media.Server) error { return f(ctx, s) }

// Option configures a Session.
type Option func(*Session)

// WithClock sets the clock monitors use for their timeout.
func WithClock(c monitor.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithTimeout overrides monitor.DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) { s.timeout = d }
}

// Session runs attempts for a Controller. Exactly one monitor and one probe
// are live at a time; starting an attempt tears the previous pair down first
// so nothing from an old server can reach the new one.
//
// Outcomes are passed to sink, possibly from timer or probe goroutines. The
// owner must feed them back through Handle on its own event loop.
type Session struct {
	ctrl    *Controller
	prober  Prober
	sink    func(monitor.Outcome)
	clock   monitor.Clock
	timeout time.Duration

	ctx    context.Context
	mon    *monitor.Monitor
	cancel context.CancelFunc
	wg     sync.WaitGroup

	log zerolog.Logger
}

// NewSession binds ctrl to a prober and an outcome sink.
func NewSession(ctrl *Controller, prober Prober, sink func(monitor.Outcome), opts ...Option) *Session {
	s := &Session{
		ctrl:    ctrl,
		prober:  prober,
		sink:    sink,
		clock:   monitor.SystemClock(),
		timeout: monitor.DefaultTimeout,
		ctx:     context.Background(),
		log:     log.WithComponent("session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Controller returns the underlying state machine.
func (s *Session) Controller() *Controller { return s.ctrl }

// Start launches the controller's current attempt. ctx bounds every probe
// the session starts.
func (s *Session) Start(ctx context.Context) {
	s.ctx = ctx
	s.launch()
}

// Handle feeds an outcome to the controller and starts the next attempt
// when the controller asks for one.
func (s *Session) Handle(o monitor.Outcome) Step {
	return s.apply(s.ctrl.Handle(o))
}

// Select switches to server i at the viewer's request.
func (s *Session) Select(i int) Step {
	return s.apply(s.ctrl.Select(i))
}

// Recheck probes the active server again with failover enabled.
func (s *Session) Recheck() Step {
	return s.apply(s.ctrl.Recheck())
}

// ReportPlaybackFailure forwards a player failure for the given attempt.
func (s *Session) ReportPlaybackFailure(attempt uint64, cause error) Step {
	return s.apply(s.ctrl.ReportPlaybackFailure(attempt, cause))
}

// Close releases the live monitor and probe and waits for the probe to return.
func (s *Session) Close() {
	s.teardown()
	s.wg.Wait()
}

func (s *Session) apply(step Step) Step {
	if step.Started {
		s.launch()
	}
	return step
}

func (s *Session) launch() {
	s.teardown()

	srv, idx := s.ctrl.Active()
	attempt := s.ctrl.Attempt()

	ctx, cancel := context.WithCancel(s.ctx)
	m := monitor.New(attempt, idx, s.timeout, s.clock, s.sink)
	s.mon = m
	s.cancel = cancel

	s.log.Debug().
		Uint64("attempt", attempt).
		Int("index", idx).
		Str("server", srv.Name).
		Str("kind", srv.Kind.String()).
		Msg("probing server")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if ctx.Err() != nil {
			return // torn down before the probe started
		}
		err := s.prober.Probe(ctx, srv)
		if ctx.Err() != nil {
			return // superseded or shut down
		}
		if err != nil {
			m.Errored(err)
			return
		}
		m.Loaded()
	}()
}

func (s *Session) teardown() {
	if s.mon != nil {
		s.mon.Dispose()
		s.mon = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
