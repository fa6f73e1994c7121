package failover

import (
	"errors"
	"fmt"

	"mirrorplay/internal/monitor"
)

var (
	// ErrCandidateTimeout means a server sent no load or error signal in time.
	// This is usually an embed that refuses to be framed.
	ErrCandidateTimeout = errors.New("server did not respond in time")

	// ErrCandidateFailed means a server reported a load failure.
	ErrCandidateFailed = errors.New("server failed to load")

	// ErrExhausted means every server in the failover sequence has failed.
	ErrExhausted = errors.New("all servers failed")

	// ErrNotSelectable is returned for a selection the viewer is not allowed
	// to make. The controller treats such selections as no-ops.
	ErrNotSelectable = errors.New("server is not selectable")
)

// outcomeError converts a failed monitor outcome into one of the sentinels,
// keeping the underlying cause in the chain.
func outcomeError(o monitor.Outcome) error {
	switch o.Result {
	case monitor.TimedOut:
		return fmt.Errorf("server %d: %w after %s", o.Index, ErrCandidateTimeout, o.Elapsed)
	case monitor.Errored:
		if o.Err != nil {
			return fmt.Errorf("server %d: %w: %w", o.Index, ErrCandidateFailed, o.Err)
		}
		return fmt.Errorf("server %d: %w", o.Index, ErrCandidateFailed)
	default:
		return nil
	}
}
