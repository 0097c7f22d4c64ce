package plot

import (
	"fmt"
	"os/exec"
	"runtime"
)

// NoDisplay leaves the rendered image on disk
type NoDisplay struct{}

// Show implements the Display interface
func (NoDisplay) Show(string) error { return nil }

// Viewer opens images with the platform image viewer. If Command is
// empty, open is used on macOS and xdg-open everywhere else.
type Viewer struct {
	Command string
}

// Show implements the Display interface. It returns once the viewer has
// been started.
func (v Viewer) Show(path string) error {
	command := v.Command
	if command == "" {
		command = "xdg-open"
		if runtime.GOOS == "darwin" {
			command = "open"
		}
	}

	cmd := exec.Command(command, path)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("show: %w", err)
	}
	go cmd.Wait()
	return nil
}
