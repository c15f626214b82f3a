// Package ui is the system tray surface. It stays thin: read-only status plus
// quit; all real interaction happens over the local API.
package ui

import (
	"log/slog"
	"sync"
	"time"

	"github.com/getlantern/systray"

	"github.com/renzengfei/ai-shot-workbench/internal/timeline"
	"github.com/renzengfei/ai-shot-workbench/internal/workspace"
)

type Tray struct {
	session  *workspace.Session
	timeline *timeline.Store
	logger   *slog.Logger

	workspaceItem *systray.MenuItem
	timelineItem  *systray.MenuItem

	mu sync.Mutex

	onQuit func()
}

type TrayConfig struct {
	Session  *workspace.Session
	Timeline *timeline.Store
	Logger   *slog.Logger
	OnQuit   func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		session:  cfg.Session,
		timeline: cfg.Timeline,
		logger:   cfg.Logger,
		onQuit:   cfg.OnQuit,
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetTitle("Shot Workbench")
	systray.SetTooltip("AI Shot Workbench")

	t.workspaceItem = systray.AddMenuItem("Workspace: none", "Current workspace")
	t.workspaceItem.Disable()

	t.timelineItem = systray.AddMenuItem("Timeline: no video loaded", "Timeline summary")
	t.timelineItem.Disable()

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Shot Workbench")

	go func() {
		for range quitItem.ClickedCh {
			t.logger.Info("quit requested from tray")
			if t.onQuit != nil {
				t.onQuit()
			}
			systray.Quit()
			return
		}
	}()

	t.Refresh()

	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			t.Refresh()
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

// Refresh redraws the status items from current state. Safe to call before
// onReady has run.
func (t *Tray) Refresh() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.workspaceItem == nil {
		return
	}

	name := "none"
	if ws := t.session.Current(); ws != nil {
		name = ws.Name
	}
	t.workspaceItem.SetTitle("Workspace: " + name)
	t.timelineItem.SetTitle("Timeline: " + t.timeline.Summary())
}

func (t *Tray) Quit() {
	systray.Quit()
}
