// Package tray provides a system tray front end for a running capture session.
package tray

import (
	"fmt"
	"sync"

	"github.com/ayusman/tracksampler/internal/app"
	"github.com/ayusman/tracksampler/internal/broker"
	"github.com/ayusman/tracksampler/internal/session"
	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onQuit func()
	mu     sync.RWMutex
	ready  bool
	last   app.Status

	// Menu items stored for later updates
	menuCollected *systray.MenuItem
	menuPhase     *systray.MenuItem
	menuBroker    *systray.MenuItem
}

// New creates a new Tray instance.
func New() *Tray {
	return &Tray{}
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Close is called or Quit is clicked, and must be
// called from the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Close exits the tray loop.
func (t *Tray) Close() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("tracksampler")
	systray.SetTooltip("tracksampler capture session")

	t.mu.Lock()
	t.menuCollected = systray.AddMenuItem("", "Samples collected")
	t.menuCollected.Disable()
	t.menuPhase = systray.AddMenuItem("", "Session phase")
	t.menuPhase.Disable()
	t.menuBroker = systray.AddMenuItem("", "Broker connection")
	t.menuBroker.Disable()
	t.ready = true
	last := t.last
	t.mu.Unlock()
	t.SetStatus(last)

	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "End the capture session")

	go func() {
		<-menuQuit.ClickedCh
		t.handleQuit()
	}()
}

func (t *Tray) onExit() {}

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

// SetStatus refreshes the menu from a session snapshot. It has the
// func(app.Status) shape expected by app.App.OnStatus.
func (t *Tray) SetStatus(s app.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = s
	if !t.ready {
		return
	}
	t.menuCollected.SetTitle(CollectedLine(s))
	t.menuPhase.SetTitle(PhaseLine(s))
	t.menuBroker.SetTitle(BrokerLine(s))
}

// CollectedLine renders the quota, e.g. "Collected 12/50".
func CollectedLine(s app.Status) string {
	return fmt.Sprintf("Collected %d/%d", s.Collected, s.Target)
}

// PhaseLine renders the session phase.
func PhaseLine(s app.Status) string {
	switch s.Phase {
	case session.EndingCountdown:
		return fmt.Sprintf("Session ending in %d", s.TicksRemaining)
	case session.Terminated:
		if s.Reason != "" {
			return fmt.Sprintf("Session finished (%s)", s.Reason)
		}
		return "Session finished"
	}
	if !s.Running {
		return "Starting"
	}
	return "Collecting"
}

// BrokerLine renders the broker connection state.
func BrokerLine(s app.Status) string {
	switch s.Broker {
	case broker.Connected:
		return "● Broker connected"
	case broker.Connecting:
		return "◌ Broker connecting"
	}
	return "○ Broker disconnected"
}
