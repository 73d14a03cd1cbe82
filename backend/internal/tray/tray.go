// Package tray shows a system tray icon with shortcuts to the viewer.
package tray

import (
	"log/slog"
	"os/exec"
	"runtime"
	"sync"
	"sync/atomic"

	"fyne.io/systray"
)

// Options configures the tray menu.
type Options struct {
	// URL is opened by "Open Viewer".
	URL string
	// SaveCvars is called by "Save Cvars". The item is hidden when nil.
	SaveCvars func() error
	// Shutdown is called once when "Exit" is clicked.
	Shutdown func()
}

// Tray manages the system tray icon and menu
type Tray struct {
	opts         Options
	once         sync.Once
	shuttingDown atomic.Bool
	menuOpen     *systray.MenuItem
	menuSave     *systray.MenuItem
	menuExit     *systray.MenuItem
}

// New creates a tray. Call Run on the thread that owns the UI.
func New(opts Options) *Tray {
	return &Tray{opts: opts}
}

// Run initializes and runs the system tray (blocks until Quit())
func (t *Tray) Run(iconData []byte) {
	systray.Run(func() {
		t.onReady(iconData)
	}, func() {
		t.onExit()
	})
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	t.shuttingDown.Store(true)
	systray.Quit()
}

func (t *Tray) onReady(iconData []byte) {
	if iconData != nil {
		systray.SetIcon(iconData)
	}
	systray.SetTitle("vrinput")
	systray.SetTooltip("vrinput - " + t.opts.URL)

	t.menuOpen = systray.AddMenuItem("Open Viewer", "Open the web viewer")
	if t.opts.SaveCvars != nil {
		t.menuSave = systray.AddMenuItem("Save Cvars", "Write archived cvars to disk")
	}
	systray.AddSeparator()
	t.menuExit = systray.AddMenuItem("Exit", "Quit application")

	// Handle menu clicks in separate goroutines to prevent blocking
	go t.handleMenuClicks()

	slog.Info("System tray initialized")
}

func (t *Tray) handleMenuClicks() {
	var saveCh chan struct{}
	if t.menuSave != nil {
		saveCh = t.menuSave.ClickedCh
	}

	for {
		select {
		case <-t.menuOpen.ClickedCh:
			if !t.shuttingDown.Load() {
				openBrowser(t.opts.URL)
			}
		case <-saveCh:
			if err := t.opts.SaveCvars(); err != nil {
				slog.Error("Failed to save cvars", "error", err)
			}
		case <-t.menuExit.ClickedCh:
			if t.shuttingDown.CompareAndSwap(false, true) {
				if t.opts.Shutdown != nil {
					t.once.Do(t.opts.Shutdown)
				}
				systray.Quit()
				return
			}
		}
	}
}

func (t *Tray) onExit() {
	t.shuttingDown.Store(true)
	slog.Info("System tray exiting")
}

func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}

	if err := cmd.Start(); err != nil {
		slog.Warn("Failed to open browser", "url", url, "error", err)
	}
}
