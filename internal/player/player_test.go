package player

import (
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func exitWith(t *testing.T, code string) error {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	err := exec.Command("sh", "-c", "exit "+code).Run()
	if err == nil {
		t.Fatalf("expected exit %s to fail", code)
	}
	return err
}

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"mpv", "mpv"},
		{"vlc", "vlc"},
		{"iina", "iina"},
		{"celluloid", "celluloid"},
		{"unknown", "mpv"},
	}
	for _, tt := range tests {
		if got := New(tt.name).Name(); got != tt.want {
			t.Errorf("New(%q).Name() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestCommandArgs(t *testing.T) {
	url := "https://cdn.example/v/clip.m3u8"

	cmd := New("mpv").Command(url, "Harbor Lights")
	if cmd.Args[1] != url {
		t.Errorf("mpv url arg = %q", cmd.Args[1])
	}
	if !strings.Contains(strings.Join(cmd.Args, " "), "--force-media-title=Harbor Lights") {
		t.Errorf("mpv args missing title: %v", cmd.Args)
	}

	cmd = New("vlc").Command(url, "Harbor Lights")
	if got := strings.Join(cmd.Args[1:], " "); got != url+" --meta-title Harbor Lights --play-and-exit" {
		t.Errorf("vlc args = %q", got)
	}

	cmd = New("iina").Command(url, "; rm -rf /")
	if cmd.Args[2] != "--force-media-title=; rm -rf /" {
		t.Errorf("title must stay a single argument, got %v", cmd.Args)
	}
}

func TestClassify(t *testing.T) {
	mpv := New("mpv")
	vlc := New("vlc")

	if err := Classify(mpv, nil, time.Millisecond); err != nil {
		t.Errorf("clean exit: %v", err)
	}

	err := Classify(mpv, exitWith(t, "2"), 300*time.Millisecond)
	if !errors.Is(err, ErrPlaybackFailed) {
		t.Errorf("early non-zero exit should fail, got %v", err)
	}

	if err := Classify(mpv, exitWith(t, "4"), 300*time.Millisecond); err != nil {
		t.Errorf("mpv quit code should not fail: %v", err)
	}

	if err := Classify(vlc, exitWith(t, "1"), 2*EarlyExitWindow); err != nil {
		t.Errorf("late non-zero exit should not fail: %v", err)
	}

	err = Classify(vlc, errors.New("exec: not started"), 0)
	if err == nil || errors.Is(err, ErrPlaybackFailed) {
		t.Errorf("non-exit error should be reported as a run error, got %v", err)
	}
}
