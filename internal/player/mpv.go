package player

import (
	"os/exec"
)

// MPV implements the Player interface for mpv.
type MPV struct{}

func (m *MPV) Name() string { return "mpv" }

func (m *MPV) Available() bool {
	_, err := exec.LookPath("mpv")
	return err == nil
}

// Command builds the mpv invocation. Embed pages are handed to mpv as-is;
// its ytdl hook resolves them when it can.
func (m *MPV) Command(url, title string) *exec.Cmd {
	args := []string{
		url,
		"--force-media-title=" + title,
		"--really-quiet",
	}
	return exec.Command("mpv", args...)
}

// mpv exits with 4 when the user quits.
func (m *MPV) quitCode() int { return 4 }
