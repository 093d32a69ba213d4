package alert

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// Desktop raises an OS notification via notify-send on Linux or osascript on
// macOS. It degrades to a no-op when the platform or tooling is missing, so
// it is always safe to include in the sequence.
type Desktop struct {
	title string
}

// NewDesktop returns a Desktop notifier with the given title.
func NewDesktop(title string) *Desktop {
	return &Desktop{title: title}
}

// Name implements Alerter.
func (d *Desktop) Name() string { return "desktop" }

// Alert implements Alerter.
func (d *Desktop) Alert(ctx context.Context, ev Event) error {
	switch runtime.GOOS {
	case "linux":
		if !toolAvailable("notify-send") || !hasDisplay() {
			return nil
		}
		return exec.CommandContext(ctx, "notify-send", "-u", "critical", d.title, ev.Message).Run()
	case "darwin":
		if !toolAvailable("osascript") {
			return nil
		}
		script := fmt.Sprintf("display notification %q with title %q", ev.Message, d.title)
		return exec.CommandContext(ctx, "osascript", "-e", script).Run()
	default:
		return nil
	}
}

func toolAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func hasDisplay() bool {
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}
