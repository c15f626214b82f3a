package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/renzengfei/ai-shot-workbench/internal/api"
	"github.com/renzengfei/ai-shot-workbench/internal/backend"
	"github.com/renzengfei/ai-shot-workbench/internal/config"
	"github.com/renzengfei/ai-shot-workbench/internal/db"
	"github.com/renzengfei/ai-shot-workbench/internal/localstate"
	"github.com/renzengfei/ai-shot-workbench/internal/logging"
	"github.com/renzengfei/ai-shot-workbench/internal/timeline"
	"github.com/renzengfei/ai-shot-workbench/internal/ui"
	"github.com/renzengfei/ai-shot-workbench/internal/workspace"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting shot workbench",
		"version", config.Version,
		"data_dir", logging.SanitizePath(cfg.DataDir()),
		"backend", cfg.BackendURL(),
	)

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	local := localstate.NewRepository(database.Conn())
	client := backend.NewClient(cfg.BackendURL(), logger)
	store := timeline.NewStore()

	session := workspace.NewSession(workspace.Config{
		Client:            client,
		Local:             local,
		Timeline:          store,
		Logger:            logger,
		RefreshRetryDelay: cfg.RefreshRetryDelay(),
		LiveRetryDelay:    cfg.LiveRetryDelay(),
		AutosaveDebounce:  cfg.AutosaveDebounce(),
	})
	defer session.Shutdown()

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := session.RefreshWorkspaces(startupCtx); err != nil {
		logger.Warn("initial workspace refresh failed, will retry", "error", err)
	}
	session.AutoOpenLast(startupCtx)
	startupCancel()

	apiServer := api.NewServer(api.ServerConfig{
		Port:      cfg.Port(),
		Session:   session,
		Timeline:  store,
		Client:    client,
		Local:     local,
		Logger:    logger,
		StartTime: startTime,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			close(quitCh)
		case <-quitCh:
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Session:  session,
			Timeline: store,
			Logger:   logger,
			OnQuit: func() {
				close(quitCh)
			},
		})
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")

	flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
	session.FlushDeconstructionSave(flushCtx)
	flushCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
