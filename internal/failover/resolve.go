package failover

import (
	"context"

	"mirrorplay/internal/media"
	"mirrorplay/internal/monitor"
)

// Resolve drives ctrl from its current attempt until a server plays, the
// list is exhausted, or a manually selected server fails. It returns the
// playing server, or the final state's error.
func Resolve(ctx context.Context, ctrl *Controller, prober Prober, opts ...Option) (media.Server, State, error) {
	events := make(chan monitor.Outcome, 1)
	done := make(chan struct{})

	sess := NewSession(ctrl, prober, func(o monitor.Outcome) {
		select {
		case events <- o:
		case <-done:
		}
	}, opts...)
	defer func() {
		close(done)
		sess.Close()
	}()

	sess.Start(ctx)

	for {
		select {
		case <-ctx.Done():
			return media.Server{}, ctrl.State(), ctx.Err()
		case o := <-events:
			sess.Handle(o)
			st := ctrl.State()
			switch st.Phase {
			case Playing:
				srv, _ := ctrl.Active()
				return srv, st, nil
			case Errored, Exhausted:
				return media.Server{}, st, st.Err
			}
		}
	}
}
