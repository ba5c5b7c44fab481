package oauth

import (
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Mode selects which interactive sign-in flow to run. It is decided once at
// startup and does not change during the session.
type Mode string

const (
	// ModeBrowser is the auth-code+PKCE flow through the system browser.
	ModeBrowser Mode = "browser"
	// ModeDevice is the device-code flow for sessions that cannot open a
	// local browser (SSH, containers, headless hosts).
	ModeDevice Mode = "device"
)

// DetectMode probes the environment for the sign-in flow to use. An explicit
// override ("browser" or "device") always wins; otherwise a session that
// cannot reach a local browser gets the device-code flow.
func DetectMode(override string) Mode {
	switch strings.ToLower(strings.TrimSpace(override)) {
	case string(ModeBrowser):
		return ModeBrowser
	case string(ModeDevice):
		return ModeDevice
	}

	if os.Getenv("SSH_CONNECTION") != "" || os.Getenv("SSH_TTY") != "" {
		return ModeDevice
	}
	if runtime.GOOS == "linux" && os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
		return ModeDevice
	}
	return ModeBrowser
}

// openBrowser launches the platform's default browser at the given URL.
func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
