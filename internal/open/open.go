// Package open launches URLs with the system's default handler.
package open

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"mirrorplay/internal/httputil"
)

// Start opens url in the default browser without waiting for it.
func Start(url string) error {
	if err := httputil.ValidateURL(url); err != nil {
		return fmt.Errorf("refusing to open: %w", err)
	}
	cmd, ok := command(runtime.GOOS, url)
	if !ok {
		return fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("opening %s: %w", url, err)
	}
	go cmd.Wait()
	return nil
}

func command(goos, url string) (*exec.Cmd, bool) {
	switch goos {
	case "windows":
		rundll := filepath.Join(os.Getenv("SYSTEMROOT"), "System32", "rundll32.exe")
		return exec.Command(rundll, "url.dll,FileProtocolHandler", url), true
	case "darwin":
		return exec.Command("open", url), true
	case "linux", "freebsd", "openbsd", "netbsd":
		return exec.Command("xdg-open", url), true
	case "android":
		return exec.Command("termux-open", url), true
	default:
		return nil, false
	}
}
