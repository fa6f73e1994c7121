package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"mirrorplay/internal/failover"
)

// statefulKeymap holds the selector bindings; help output follows the phase.
type statefulKeymap struct {
	phase failover.Phase

	quit, forceQuit,
	up, down,
	selectServer,
	premium,
	recheck,
	openDirect,
	watch,
	showHelp key.Binding
}

func (k *statefulKeymap) setPhase(p failover.Phase) {
	k.phase = p
}

func newStatefulKeymap() *statefulKeymap {
	return &statefulKeymap{
		quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		forceQuit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+d"),
			key.WithHelp("ctrl+c", "quit"),
		),
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓", "down"),
		),
		selectServer: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "use server"),
		),
		premium: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "no ads"),
		),
		recheck: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "recheck"),
		),
		openDirect: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open directly"),
		),
		watch: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "watch"),
		),
		showHelp: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}

func (k *statefulKeymap) help() ([]key.Binding, []key.Binding) {
	h := func(bindings ...key.Binding) []key.Binding {
		return bindings
	}

	switch k.phase {
	case failover.Loading:
		return h(k.selectServer, k.premium, k.quit),
			h(k.up, k.down, k.selectServer, k.premium, k.openDirect, k.quit)
	case failover.Playing:
		return h(k.watch, k.openDirect, k.selectServer, k.quit),
			h(k.up, k.down, k.watch, k.openDirect, k.selectServer, k.premium, k.recheck, k.quit)
	case failover.Errored, failover.Exhausted:
		return h(k.openDirect, k.recheck, k.selectServer, k.quit),
			h(k.up, k.down, k.openDirect, k.recheck, k.selectServer, k.premium, k.quit)
	default:
		return h(k.quit), h(k.quit)
	}
}

func (k *statefulKeymap) ShortHelp() []key.Binding {
	short, _ := k.help()
	return append(short, k.showHelp)
}

func (k *statefulKeymap) FullHelp() [][]key.Binding {
	_, full := k.help()
	return [][]key.Binding{full}
}
