package failover

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"mirrorplay/internal/media"
	"mirrorplay/internal/monitor"
	"mirrorplay/internal/monitor/monitortest"
	"mirrorplay/internal/servers"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// behavior decides what probing a server does.
type behavior func(ctx context.Context) error

func hang(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func fail(err error) behavior {
	return func(context.Context) error { return err }
}

func succeed(context.Context) error { return nil }

// hangSignal is hang that closes started once the probe is running.
func hangSignal(started chan<- struct{}) behavior {
	return func(ctx context.Context) error {
		close(started)
		return hang(ctx)
	}
}

func waitStarted(t *testing.T, started <-chan struct{}) {
	t.Helper()
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("probe never started")
	}
}

// scriptProber probes servers by name according to a script.
type scriptProber struct {
	mu     sync.Mutex
	script map[string]behavior
	calls  []string
}

func (p *scriptProber) Probe(ctx context.Context, s media.Server) error {
	p.mu.Lock()
	p.calls = append(p.calls, s.Name)
	b := p.script[s.Name]
	p.mu.Unlock()
	if b == nil {
		return hang(ctx)
	}
	return b(ctx)
}

func (p *scriptProber) probed() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

type harness struct {
	t      *testing.T
	clock  *monitortest.Clock
	events chan monitor.Outcome
	sess   *Session
}

func newHarness(t *testing.T, l *servers.List, entitled bool, p Prober) *harness {
	t.Helper()
	h := &harness{
		t:      t,
		clock:  monitortest.NewClock(),
		events: make(chan monitor.Outcome, 16),
	}
	h.sess = NewSession(New(l, entitled), p, func(o monitor.Outcome) { h.events <- o }, WithClock(h.clock))
	t.Cleanup(h.sess.Close)
	return h
}

// next waits for one outcome and feeds it back like an event loop would.
func (h *harness) next() monitor.Outcome {
	h.t.Helper()
	select {
	case o := <-h.events:
		h.sess.Handle(o)
		return o
	case <-time.After(2 * time.Second):
		h.t.Fatal("timed out waiting for an outcome")
		return monitor.Outcome{}
	}
}

func (h *harness) state() State { return h.sess.Controller().State() }

func TestSessionScenarioA(t *testing.T) {
	started := make(chan struct{})
	p := &scriptProber{script: map[string]behavior{
		"S0": hangSignal(started),
		"S1": fail(errors.New("status 500")),
		"S2": succeed,
	}}
	h := newHarness(t, testList(t, 3, false), false, p)
	h.sess.Start(context.Background())
	waitStarted(t, started)

	h.clock.Advance(monitor.DefaultTimeout)
	o := h.next()
	require.Equal(t, monitor.TimedOut, o.Result)
	require.Equal(t, 1, h.state().ActiveIndex)

	o = h.next()
	require.Equal(t, monitor.Errored, o.Result)
	require.Equal(t, 2, h.state().ActiveIndex)

	o = h.next()
	require.Equal(t, monitor.Loaded, o.Result)

	st := h.state()
	assert.Equal(t, Playing, st.Phase)
	assert.Equal(t, 2, st.ActiveIndex)
	assert.Equal(t, []int{0, 1}, st.Attempted)
	assert.Equal(t, []string{"S0", "S1", "S2"}, p.probed())
	assert.Equal(t, 0, h.clock.Pending(), "no timers may outlive their attempt")
}

func TestSessionSwitchDetachesOldAttempt(t *testing.T) {
	release := make(chan struct{})
	p := &scriptProber{script: map[string]behavior{
		// S0 ignores cancellation and reports success late.
		"S0": func(context.Context) error { <-release; return nil },
		"S1": hang,
	}}
	h := newHarness(t, testList(t, 2, false), false, p)
	h.sess.Start(context.Background())

	h.sess.Select(1)
	require.Equal(t, 1, h.state().ActiveIndex)
	require.Equal(t, 1, h.clock.Pending(), "old timer must be cancelled on switch")

	close(release)

	// The old timer's deadline passes too; only S1's monitor may report.
	h.clock.Advance(monitor.DefaultTimeout)
	o := h.next()
	assert.Equal(t, 1, o.Index)
	assert.Equal(t, monitor.TimedOut, o.Result)

	st := h.state()
	assert.Equal(t, Errored, st.Phase, "manual choice gets its grace failure")
	assert.Equal(t, 1, st.ActiveIndex)

	select {
	case extra := <-h.events:
		t.Fatalf("unexpected outcome from superseded attempt: %v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCancelledAttemptIsNotProbed(t *testing.T) {
	p := &scriptProber{script: map[string]behavior{"S0": succeed}}
	h := newHarness(t, testList(t, 1, false), false, p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h.sess.Start(ctx)
	h.sess.Close()

	assert.Empty(t, p.probed(), "a torn-down attempt must not reach the server")
	select {
	case o := <-h.events:
		t.Fatalf("cancelled attempt delivered %v", o)
	default:
	}
}

func TestSessionCloseCancelsProbe(t *testing.T) {
	p := &scriptProber{script: map[string]behavior{"S0": hang}}
	h := newHarness(t, testList(t, 1, false), false, p)
	h.sess.Start(context.Background())

	h.sess.Close()
	assert.Equal(t, 0, h.clock.Pending())

	h.clock.Advance(time.Minute)
	select {
	case o := <-h.events:
		t.Fatalf("closed session delivered %v", o)
	default:
	}
}

func TestSessionGatedSelectionIsNoop(t *testing.T) {
	p := &scriptProber{script: map[string]behavior{"S0": fail(errors.New("gone"))}}
	h := newHarness(t, testList(t, 1, true), false, p)
	h.sess.Start(context.Background())

	h.next()
	require.Equal(t, Exhausted, h.state().Phase)

	step := h.sess.Select(servers.PremiumIndex)
	assert.Equal(t, Step{}, step)
	assert.Equal(t, Exhausted, h.state().Phase)
	assert.Equal(t, []string{"S0"}, p.probed())
}

func TestResolve(t *testing.T) {
	t.Run("first working server", func(t *testing.T) {
		p := &scriptProber{script: map[string]behavior{
			"S0": fail(errors.New("dns")),
			"S1": succeed,
		}}
		ctrl := New(testList(t, 3, false), false)

		srv, st, err := Resolve(context.Background(), ctrl, p)
		require.NoError(t, err)
		assert.Equal(t, "S1", srv.Name)
		assert.Equal(t, Playing, st.Phase)
	})

	t.Run("exhausted", func(t *testing.T) {
		p := &scriptProber{script: map[string]behavior{
			"S0": fail(errors.New("a")),
			"S1": fail(errors.New("b")),
		}}
		ctrl := New(testList(t, 2, false), false)

		_, st, err := Resolve(context.Background(), ctrl, p)
		assert.ErrorIs(t, err, ErrExhausted)
		assert.Equal(t, Exhausted, st.Phase)
	})

	t.Run("manual start keeps its grace", func(t *testing.T) {
		p := &scriptProber{script: map[string]behavior{
			"S1": fail(errors.New("flaky")),
			"S2": succeed,
		}}
		ctrl := New(testList(t, 3, false), false)
		ctrl.Select(1)

		_, st, err := Resolve(context.Background(), ctrl, p)
		assert.ErrorIs(t, err, ErrCandidateFailed)
		assert.Equal(t, Errored, st.Phase)
		assert.Equal(t, 1, st.ActiveIndex)
		assert.Equal(t, []string{"S1"}, p.probed())
	})

	t.Run("timeout with real clock", func(t *testing.T) {
		p := &scriptProber{script: map[string]behavior{"S1": succeed}}
		ctrl := New(testList(t, 2, false), false)

		srv, _, err := Resolve(context.Background(), ctrl, p, WithTimeout(20*time.Millisecond))
		require.NoError(t, err)
		assert.Equal(t, "S1", srv.Name)
		assert.NoError(t, ctrl.State().Err)
	})

	t.Run("context cancelled", func(t *testing.T) {
		p := &scriptProber{script: map[string]behavior{"S0": hang}}
		ctrl := New(testList(t, 1, false), false)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, _, err := Resolve(ctx, ctrl, p)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
