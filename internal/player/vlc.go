package player

import (
	"os/exec"
)

// VLC implements the Player interface for VLC media player.
type VLC struct{}

func (v *VLC) Name() string { return "vlc" }

func (v *VLC) Available() bool {
	_, err := exec.LookPath("vlc")
	return err == nil
}

func (v *VLC) Command(url, title string) *exec.Cmd {
	return exec.Command("vlc", url, "--meta-title", title, "--play-and-exit")
}
