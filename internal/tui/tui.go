// Package tui renders the server selector: the server list for one video,
// which server is active, and what the failover controller is doing.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"mirrorplay/internal/failover"
	"mirrorplay/internal/history"
	"mirrorplay/internal/media"
	"mirrorplay/internal/monitor"
	"mirrorplay/internal/player"
	"mirrorplay/internal/views"
)

// Options carries everything the selector needs for one video.
type Options struct {
	Slug       string
	Video      *media.Video
	Controller *failover.Controller
	Prober     failover.Prober
	Player     player.Player

	// Optional collaborators. Nil disables the feature.
	History *history.Store
	Views   *views.Tracker
	Open    func(url string) error

	// AutoPlay hands the first playing server to the player without
	// waiting for a key press.
	AutoPlay bool

	SessionOptions []failover.Option
}

// Run starts the selector and blocks until the viewer quits. It returns the
// controller's final state.
func Run(ctx context.Context, opts Options) (failover.State, error) {
	var program *tea.Program
	m := newModel(ctx, opts, func(o monitor.Outcome) {
		program.Send(outcomeMsg(o))
	})
	defer m.close()

	program = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return opts.Controller.State(), err
}
