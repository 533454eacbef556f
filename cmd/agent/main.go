package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/pulsepoint/pulsepoint-agent/internal/analysis"
	"github.com/pulsepoint/pulsepoint-agent/internal/api"
	"github.com/pulsepoint/pulsepoint-agent/internal/blob"
	"github.com/pulsepoint/pulsepoint-agent/internal/config"
	"github.com/pulsepoint/pulsepoint-agent/internal/curation"
	"github.com/pulsepoint/pulsepoint-agent/internal/db"
	"github.com/pulsepoint/pulsepoint-agent/internal/ingest"
	"github.com/pulsepoint/pulsepoint-agent/internal/library"
	"github.com/pulsepoint/pulsepoint-agent/internal/logging"
	"github.com/pulsepoint/pulsepoint-agent/internal/stages"
	"github.com/pulsepoint/pulsepoint-agent/internal/ui"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	// A .env file is optional; real env vars win either way.
	_ = godotenv.Load()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	for _, dir := range []string{cfg.DataDir(), cfg.BlobDir(), cfg.ExportDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting pulsepoint agent", "version", config.Version, "data_dir", cfg.DataDir())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := library.NewRepository(database.Conn())

	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║                   PULSEPOINT AGENT v0.1.0                 ║")
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var store blob.Store
	if cfg.GCSBucket() != "" {
		gcs, err := blob.NewGCSStore(ctx, cfg.GCSBucket(), logger)
		if err != nil {
			return fmt.Errorf("failed to initialize object store: %w", err)
		}
		defer gcs.Close()
		store = gcs
		logger.Info("object store: gcs", "bucket", cfg.GCSBucket())
	} else {
		disk, err := blob.NewDiskStore(cfg.BlobDir(), logger)
		if err != nil {
			return fmt.Errorf("failed to initialize object store: %w", err)
		}
		store = disk
		logger.Info("object store: local disk", "root", cfg.BlobDir())
	}

	if count, err := store.Count(ctx, blob.UploadPrefix); err != nil {
		logger.Warn("object store probe failed", "error", err)
	} else {
		logger.Info("object store ready", "stored_uploads", count)
	}

	var analysisClient analysis.Client
	if cfg.AnalysisBaseURL() != "" {
		analysisClient = analysis.NewHTTPClient(cfg.AnalysisBaseURL(), cfg.AnalysisToken(), logger)
		logger.Info("analysis backend enabled", "base_url", cfg.AnalysisBaseURL())
	} else {
		stub, err := analysis.NewStubClient(logger)
		if err != nil {
			return fmt.Errorf("failed to initialize analysis stub: %w", err)
		}
		analysisClient = stub
	}

	curationSvc := curation.NewService(analysisClient, logger)

	newSource := func(videoID string) stages.Source {
		if cfg.AnalysisBaseURL() != "" {
			return &stages.PollSource{
				Client:   analysisClient,
				VideoID:  videoID,
				Interval: time.Second,
				Logger:   logger,
			}
		}
		return stages.DefaultSchedule()
	}

	stagesSvc := stages.NewService(repo, newSource, func(videoID string) {
		if _, err := curationSvc.Begin(ctx, videoID); err != nil {
			logger.Error("failed to begin curation", "video_id", videoID, "error", err)
		}
	}, logger)

	ingestSvc := ingest.NewService(store, repo, func(videoID string) {
		stagesSvc.Begin(ctx, videoID)
	}, logger)

	apiServer := api.NewServer(api.ServerConfig{
		Port:       cfg.Port(),
		Ingest:     ingestSvc,
		Stages:     stagesSvc,
		Curation:   curationSvc,
		Repository: repo,
		ExportDir:  cfg.ExportDir(),
		Logger:     logger,
		StartTime:  startTime,
		Version:    config.Version,
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
			Repository: repo,
			Ingest:     ingestSvc,
			Logger:     logger,
			OnQuit: func() {
				close(quitCh)
			},
		})
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")
	cancel()
	stagesSvc.StopAll()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func ensureAuthToken(repo library.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "auth_token")
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetConfig(ctx, "auth_token", token); err != nil {
		return "", err
	}

	return token, nil
}
