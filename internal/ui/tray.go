package ui

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/getlantern/systray"

	"github.com/pulsepoint/pulsepoint-agent/internal/ingest"
	"github.com/pulsepoint/pulsepoint-agent/internal/library"
)

type Tray struct {
	repo      library.Repository
	ingestSvc *ingest.Service
	logger    *slog.Logger

	statusItem *systray.MenuItem
	videosItem *systray.MenuItem

	mu sync.Mutex

	onQuit func()
}

type TrayConfig struct {
	Repository library.Repository
	Ingest     *ingest.Service
	Logger     *slog.Logger
	OnQuit     func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		repo:      cfg.Repository,
		ingestSvc: cfg.Ingest,
		logger:    cfg.Logger,
		onQuit:    cfg.OnQuit,
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("PulsePoint")
	systray.SetTooltip("PulsePoint Agent")

	t.statusItem = systray.AddMenuItem("Status: Idle", "Current agent status")
	t.statusItem.Disable()

	t.videosItem = systray.AddMenuItem("Videos: 0", "Videos in the library")
	t.videosItem.Disable()

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit PulsePoint Agent")

	t.Refresh()

	go func() {
		for {
			select {
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

// Refresh pulls the latest library and upload counts into the menu.
func (t *Tray) Refresh() {
	if count, err := t.repo.CountVideos(context.Background(), ""); err == nil {
		t.UpdateVideosCount(count)
	}

	if t.ingestSvc != nil && t.ingestSvc.ActiveUploads() > 0 {
		t.UpdateStatus("Uploading")
	} else {
		t.UpdateStatus("Idle")
	}
}

func (t *Tray) UpdateStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.statusItem.SetTitle("Status: " + status)
}

func (t *Tray) UpdateVideosCount(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.videosItem.SetTitle(fmt.Sprintf("Videos: %d", count))
}

func (t *Tray) Quit() {
	systray.Quit()
}
