package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"mirrorplay/internal/failover"
	"mirrorplay/internal/media"
	"mirrorplay/internal/monitor"
	"mirrorplay/internal/player"
	"mirrorplay/internal/servers"
)

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.helpC.Width = msg.Width
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinnerC, cmd = m.spinnerC.Update(msg)
		return m, cmd
	case outcomeMsg:
		m.sess.Handle(monitor.Outcome(msg))
		return m, m.afterTransition()
	case viewCountMsg:
		if msg.err != nil {
			m.log.Warn().Err(msg.err).Msg("view not recorded")
		} else if msg.ok {
			m.views, m.hasViews = msg.count, true
		}
		return m, nil
	case playerDoneMsg:
		return m, m.handlePlayerDone(msg)
	case openedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("could not open browser: %v", msg.err)
		} else {
			m.status = "opened " + msg.url
		}
		return m, nil
	case historySavedMsg:
		if msg.err != nil {
			m.log.Warn().Err(msg.err).Msg("history not saved")
		}
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keymap.forceQuit), key.Matches(msg, m.keymap.quit):
		return tea.Quit
	case key.Matches(msg, m.keymap.up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keymap.down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keymap.selectServer):
		return m.selectIndex(m.rows[m.cursor])
	case key.Matches(msg, m.keymap.premium):
		if _, ok := m.ctrl.List().Premium(); !ok {
			m.status = "this video has no ad-free server"
			return nil
		}
		return m.selectIndex(servers.PremiumIndex)
	case key.Matches(msg, m.keymap.recheck):
		if m.ctrl.State().Phase == failover.Loading {
			return nil
		}
		m.status = ""
		m.sess.Recheck()
		return m.afterTransition()
	case key.Matches(msg, m.keymap.openDirect):
		return m.openActive()
	case key.Matches(msg, m.keymap.watch):
		return m.watch()
	case key.Matches(msg, m.keymap.showHelp):
		m.helpC.ShowAll = !m.helpC.ShowAll
	}
	return nil
}

func (m *model) selectIndex(i int) tea.Cmd {
	if err := m.ctrl.CanSelect(i); err != nil {
		if errors.Is(err, failover.ErrNotSelectable) {
			m.status = "No Ads needs a premium account"
		}
		return nil
	}
	m.status = ""
	m.sess.Select(i)
	m.syncCursor()
	return m.afterTransition()
}

// afterTransition refreshes view state after the controller may have moved
// and returns follow-up work for a newly playing server.
func (m *model) afterTransition() tea.Cmd {
	st := m.ctrl.State()
	m.keymap.setPhase(st.Phase)
	m.syncCursor()

	if st.Phase != failover.Playing {
		return nil
	}

	var cmds []tea.Cmd
	if m.recorded != st.Attempt {
		m.recorded = st.Attempt
		cmds = append(cmds, m.saveHistory())
	}
	if m.opts.AutoPlay && m.autoPlayed != st.Attempt {
		m.autoPlayed = st.Attempt
		cmds = append(cmds, m.watch())
	}
	return tea.Batch(cmds...)
}

// syncCursor keeps the cursor on the active server.
func (m *model) syncCursor() {
	_, active := m.ctrl.Active()
	for row, idx := range m.rows {
		if idx == active {
			m.cursor = row
			return
		}
	}
}

func (m *model) watch() tea.Cmd {
	st := m.ctrl.State()
	if st.Phase != failover.Playing {
		m.status = "no working server yet"
		return nil
	}
	p := m.opts.Player
	if p == nil {
		return nil
	}
	if !p.Available() {
		m.status = p.Name() + " not found in PATH"
		return nil
	}

	srv, _ := m.ctrl.Active()
	attempt := st.Attempt
	start := time.Now()
	m.playing = true
	m.log.Info().Str("server", srv.Name).Str("player", p.Name()).Msg("starting player")

	return tea.ExecProcess(p.Command(srv.URL, m.title()), func(err error) tea.Msg {
		return playerDoneMsg{attempt: attempt, err: err, elapsed: time.Since(start)}
	})
}

func (m *model) handlePlayerDone(msg playerDoneMsg) tea.Cmd {
	m.playing = false
	err := player.Classify(m.opts.Player, msg.err, msg.elapsed)
	switch {
	case err == nil:
		m.status = "playback finished"
		return nil
	case errors.Is(err, player.ErrPlaybackFailed):
		m.log.Warn().Err(err).Uint64("attempt", msg.attempt).Msg("player rejected server")
		m.status = err.Error()
		m.sess.ReportPlaybackFailure(msg.attempt, err)
		return m.afterTransition()
	default:
		m.status = err.Error()
		return nil
	}
}

func (m *model) openActive() tea.Cmd {
	if m.opts.Open == nil {
		return nil
	}
	srv, _ := m.ctrl.Active()
	open := m.opts.Open
	return func() tea.Msg {
		return openedMsg{url: srv.URL, err: open(srv.URL)}
	}
}

func (m *model) saveHistory() tea.Cmd {
	store := m.opts.History
	if store == nil {
		return nil
	}
	srv, _ := m.ctrl.Active()
	entry := media.HistoryEntry{
		Slug:      m.opts.Slug,
		Title:     m.title(),
		Server:    srv.Name,
		ServerURL: srv.URL,
		WatchedAt: time.Now(),
	}
	ctx := m.ctx
	return func() tea.Msg {
		return historySavedMsg{err: store.Save(ctx, entry)}
	}
}

func (m *model) trackView() tea.Cmd {
	tracker := m.opts.Views
	if tracker == nil {
		return nil
	}
	id := m.opts.Video.ID
	if id == "" {
		id = m.opts.Slug
	}
	parent := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, 10*time.Second)
		defer cancel()
		n, ok, err := tracker.Track(ctx, media.ContentVideo, id)
		return viewCountMsg{count: n, ok: ok, err: err}
	}
}
