// Package tray provides the system tray menu: an on/off toggle, the current
// volume and finger count, and the last recognised pose.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/handvolume/internal/app"
	"github.com/ayusman/handvolume/internal/gesture"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle   func(enabled bool)
	onSettings func()
	onQuit     func()
	enabled    bool
	mu         sync.RWMutex

	// Current menu text, kept so unchanged frames cost nothing.
	status   string
	lastPose string

	// Menu items stored for later updates
	menuToggle   *systray.MenuItem
	menuStatus   *systray.MenuItem
	menuLastPose *systray.MenuItem
}

// New creates a new Tray instance reflecting the given enabled state.
func New(enabled bool) *Tray {
	return &Tray{
		enabled:  enabled,
		status:   StatusLine(0, 0),
		lastPose: PoseLine(""),
	}
}

// OnToggle sets the callback function to be called when the enabled state is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
func (t *Tray) onReady() {
	systray.SetTitle("HandVolume")
	systray.SetTooltip("Hand gesture volume control")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(ToggleTitle(t.enabled), "Toggle gesture control")
	systray.AddSeparator()

	t.menuStatus = systray.AddMenuItem(t.status, "Current volume and extended fingers")
	t.menuStatus.Disable()
	t.menuLastPose = systray.AddMenuItem(t.lastPose, "Last recognised hand pose")
	t.menuLastPose.Disable()
	systray.AddSeparator()
	t.mu.Unlock()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit HandVolume")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(ToggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleSettings handles the settings menu item click.
func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Update reflects an app state in the menu. It is meant to be registered as
// an app listener. The last pose line only changes when a named pose is seen.
func (t *Tray) Update(state app.State) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if state.Enabled != t.enabled {
		t.enabled = state.Enabled
		if t.menuToggle != nil {
			t.menuToggle.SetTitle(ToggleTitle(t.enabled))
		}
	}

	if status := StatusLine(state.Volume, state.Fingers); status != t.status {
		t.status = status
		if t.menuStatus != nil {
			t.menuStatus.SetTitle(status)
		}
	}

	if state.Pose == gesture.PoseNone || state.Pose == gesture.PoseUnknown {
		return
	}
	if line := PoseLine(state.Pose); line != t.lastPose {
		t.lastPose = line
		if t.menuLastPose != nil {
			t.menuLastPose.SetTitle(line)
		}
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// Status returns the status and last pose lines as currently shown.
func (t *Tray) Status() (status, lastPose string) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status, t.lastPose
}

// StatusLine formats the volume and finger count menu line.
func StatusLine(volume, fingers int) string {
	return fmt.Sprintf("Volume: %d%% | Fingers: %d", volume, fingers)
}

// PoseLine formats the last pose menu line.
func PoseLine(pose gesture.Pose) string {
	if pose == "" {
		return "Last: none"
	}
	return "Last: " + string(pose)
}

// ToggleTitle is the toggle item's text for an enabled state.
func ToggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}
