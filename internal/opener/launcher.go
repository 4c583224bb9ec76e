package opener

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/pders01/stories/internal/config"
	"github.com/pders01/stories/internal/validation"
)

// Launcher hands story links to the desktop's URL opener.
type Launcher struct {
	command string
	start   func(name string, args ...string) error
}

func NewLauncher(cfg *config.Config) *Launcher {
	command := strings.TrimSpace(cfg.UI.Opener)
	if command == "" || (command != "start" && findCommand(command) == "") {
		command = platformOpener()
	}
	return &Launcher{command: command, start: startDetached}
}

// Command returns the program used to open links.
func (l *Launcher) Command() string {
	return l.command
}

// Open launches the opener for url without waiting for it to exit.
func (l *Launcher) Open(url string) error {
	if !validation.IsOpenableURL(url) {
		return fmt.Errorf("refusing to open %q: not an http(s) URL", url)
	}
	if l.command == "" {
		return fmt.Errorf("no application found to open URL")
	}

	name, args := l.invocation(strings.TrimSpace(url))
	if err := l.start(name, args...); err != nil {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}
	return nil
}

func (l *Launcher) invocation(url string) (string, []string) {
	// start is a cmd.exe builtin; the empty string is the window title
	if l.command == "start" {
		return "cmd", []string{"/c", "start", "", url}
	}
	return l.command, []string{url}
}

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

func platformOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "windows":
		return "start"
	default:
		return findCommand("xdg-open", "sensible-browser", "x-www-browser")
	}
}

func findCommand(commands ...string) string {
	for _, cmd := range commands {
		if _, err := exec.LookPath(cmd); err == nil {
			return cmd
		}
	}
	return ""
}
