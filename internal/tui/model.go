package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"mirrorplay/internal/failover"
	"mirrorplay/internal/log"
	"mirrorplay/internal/media"
	"mirrorplay/internal/monitor"
	"mirrorplay/internal/servers"
)

type (
	// outcomeMsg carries a monitor outcome onto the event loop.
	outcomeMsg monitor.Outcome

	viewCountMsg struct {
		count int64
		ok    bool
		err   error
	}

	playerDoneMsg struct {
		attempt uint64
		err     error
		elapsed time.Duration
	}

	openedMsg struct {
		url string
		err error
	}

	historySavedMsg struct {
		err error
	}
)

// model is the selector. All controller access happens in Update.
type model struct {
	ctx  context.Context
	opts Options
	sess *failover.Session
	ctrl *failover.Controller

	keymap   *statefulKeymap
	spinnerC spinner.Model
	helpC    help.Model

	rows   []int // server index per row; premium is servers.PremiumIndex
	cursor int

	views      int64
	hasViews   bool
	status     string
	playing    bool   // the player is on screen
	autoPlayed uint64 // attempt auto-play already fired for
	recorded   uint64 // attempt already written to history

	log zerolog.Logger
}

func newModel(ctx context.Context, opts Options, sink func(monitor.Outcome)) *model {
	ctrl := opts.Controller
	l := ctrl.List()

	rows := make([]int, 0, l.Len()+1)
	for i := 0; i < l.Len(); i++ {
		rows = append(rows, i)
	}
	if _, ok := l.Premium(); ok {
		rows = append(rows, servers.PremiumIndex)
	}

	if opts.Video == nil {
		opts.Video = &media.Video{Slug: opts.Slug}
	}

	m := &model{
		ctx:      ctx,
		opts:     opts,
		ctrl:     ctrl,
		sess:     failover.NewSession(ctrl, opts.Prober, sink, opts.SessionOptions...),
		keymap:   newStatefulKeymap(),
		spinnerC: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(accentStyle)),
		helpC:    help.New(),
		rows:     rows,
		log:      log.WithComponent("tui"),
	}
	if v := opts.Video.Views; v > 0 {
		m.views, m.hasViews = v, true
	}
	m.keymap.setPhase(ctrl.State().Phase)
	return m
}

func (m *model) Init() tea.Cmd {
	m.sess.Start(m.ctx)
	return tea.Batch(m.spinnerC.Tick, m.trackView())
}

func (m *model) close() {
	m.sess.Close()
}

func (m *model) title() string {
	if t := m.opts.Video.Title; t != "" {
		return t
	}
	return m.opts.Slug
}
