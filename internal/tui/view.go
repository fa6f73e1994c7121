package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"mirrorplay/internal/failover"
	"mirrorplay/internal/servers"
)

var (
	accentColor = lipgloss.Color("#7D56F4")
	errorColor  = lipgloss.Color("#FF5F87")
	okColor     = lipgloss.Color("#04B575")
	dimColor    = lipgloss.Color("#626262")

	paddingStyle = lipgloss.NewStyle().Padding(1, 2)
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Background(accentColor).Padding(0, 1)
	accentStyle  = lipgloss.NewStyle().Foreground(accentColor)
	cursorStyle  = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(dimColor)
	okStyle      = lipgloss.NewStyle().Foreground(okColor)
	errorStyle   = lipgloss.NewStyle().Foreground(errorColor)
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(errorColor).Padding(0, 1)
)

func (m *model) View() string {
	st := m.ctrl.State()

	lines := []string{m.viewHeader(), ""}
	lines = append(lines, m.viewServers(st)...)
	lines = append(lines, "")

	switch st.Phase {
	case failover.Loading:
		srv, _ := m.ctrl.Active()
		lines = append(lines, fmt.Sprintf("%s checking %s…", m.spinnerC.View(), srv.Name))
	case failover.Playing:
		srv, _ := m.ctrl.Active()
		msg := okStyle.Render("▶ playing from " + srv.Name)
		if m.playing {
			msg += dimStyle.Render(" (player open)")
		}
		lines = append(lines, msg)
	case failover.Errored:
		srv, _ := m.ctrl.Active()
		lines = append(lines, panelStyle.Render(fmt.Sprintf(
			"%s could not be loaded: %s\nPress o to open it directly, or pick another server.",
			srv.Name, describe(st.Err))))
	case failover.Exhausted:
		lines = append(lines, panelStyle.Render(
			"None of the servers could be loaded.\nPress o to open the current one directly, r to try again, or pick a server."))
	}

	if m.status != "" {
		lines = append(lines, "", dimStyle.Render(m.status))
	}
	lines = append(lines, "", m.helpC.View(m.keymap))

	return paddingStyle.Render(strings.Join(lines, "\n"))
}

func (m *model) viewHeader() string {
	header := titleStyle.Render(m.title())
	if m.hasViews {
		header += dimStyle.Render(fmt.Sprintf("  %d views", m.views))
	}
	return header
}

func (m *model) viewServers(st failover.State) []string {
	attempted := make(map[int]bool, len(st.Attempted))
	for _, i := range st.Attempted {
		attempted[i] = true
	}

	lines := make([]string, 0, len(m.rows))
	for row, idx := range m.rows {
		srv, _ := m.ctrl.List().At(idx)

		pointer := "  "
		if row == m.cursor {
			pointer = cursorStyle.Render("> ")
		}

		marker := " "
		if idx == st.ActiveIndex {
			switch st.Phase {
			case failover.Loading:
				marker = m.spinnerC.View()
			case failover.Playing:
				marker = okStyle.Render("▶")
			default:
				marker = errorStyle.Render("✗")
			}
		} else if attempted[idx] {
			marker = errorStyle.Render("✗")
		}

		label := srv.Name
		if idx == servers.PremiumIndex {
			label += " ★"
		}
		if !servers.IsSelectable(srv, m.ctrl.Entitled()) {
			label = dimStyle.Render(label + " (premium)")
		} else if idx == st.ActiveIndex {
			label = accentStyle.Render(label)
		}

		lines = append(lines, fmt.Sprintf("%s%s %s", pointer, marker, label))
	}
	return lines
}

func describe(err error) string {
	switch {
	case err == nil:
		return "unknown error"
	case errors.Is(err, failover.ErrCandidateTimeout):
		return "timed out"
	default:
		return err.Error()
	}
}
