// Package player launches external media players for a resolved source.
// All player invocations use exec.Command with explicit argument slices so
// source URLs and titles never pass through a shell.
package player

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// EarlyExitWindow is how soon after launch a non-zero exit counts as a
// playback failure rather than the user closing the player.
const EarlyExitWindow = 5 * time.Second

// ErrPlaybackFailed is returned when the player gave up on the source.
var ErrPlaybackFailed = errors.New("player could not play source")

// Player is the interface for media player implementations.
type Player interface {
	// Command builds the player invocation for a source URL.
	Command(url, title string) *exec.Cmd

	// Name returns the player name.
	Name() string

	// Available checks if the player binary exists in PATH.
	Available() bool
}

// quitter is implemented by players with a dedicated "user quit" exit code.
type quitter interface {
	quitCode() int
}

// New creates a player by name.
func New(name string) Player {
	switch name {
	case "mpv":
		return &MPV{}
	case "vlc":
		return &VLC{}
	case "iina", "celluloid":
		return &Generic{name: name}
	default:
		return &MPV{}
	}
}

// Play runs the player attached to the terminal and waits for it to exit.
// A failure to start or an early non-zero exit is returned as an error
// wrapping ErrPlaybackFailed.
func Play(p Player, url, title string) error {
	if !p.Available() {
		return fmt.Errorf("%s not found in PATH", p.Name())
	}
	cmd := p.Command(url, title)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", p.Name(), err)
	}
	return Classify(p, cmd.Wait(), time.Since(start))
}

// Classify interprets the result of a finished player process. It is shared
// by Play and by callers that run the command themselves.
func Classify(p Player, err error, elapsed time.Duration) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return fmt.Errorf("running %s: %w", p.Name(), err)
	}
	if q, ok := p.(quitter); ok && exitErr.ExitCode() == q.quitCode() {
		return nil
	}
	if elapsed >= EarlyExitWindow {
		// Players exit non-zero when closed mid-stream.
		return nil
	}
	return fmt.Errorf("%w: %s exited with status %d after %s",
		ErrPlaybackFailed, p.Name(), exitErr.ExitCode(), elapsed.Round(time.Millisecond))
}
