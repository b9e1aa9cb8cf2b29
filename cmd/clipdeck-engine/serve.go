package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/clipdeck/clipdeck-engine/internal/api"
	"github.com/clipdeck/clipdeck-engine/internal/compositor"
	"github.com/clipdeck/clipdeck-engine/internal/config"
	"github.com/clipdeck/clipdeck-engine/internal/db"
	"github.com/clipdeck/clipdeck-engine/internal/footage"
	"github.com/clipdeck/clipdeck-engine/internal/jobs"
	"github.com/clipdeck/clipdeck-engine/internal/logging"
	"github.com/clipdeck/clipdeck-engine/internal/media"
)

func newServeCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the engine API server and render job runner",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*configFlag)
		},
	}
}

func runServe(configPath string) error {
	startTime := time.Now()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.WorkDir, cfg.Paths.OutputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	logger := logging.NewLogger(cfg.Logging.Level)
	logger.Info("starting clipdeck engine", "version", config.Version, "data_dir", cfg.Paths.DataDir)

	lock := flock.New(filepath.Join(cfg.Paths.DataDir, "clipdeck.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another clipdeck engine instance is already running against %s", cfg.Paths.DataDir)
	}
	defer lock.Unlock()

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer database.Close()

	repo := jobs.NewRepository(database.Conn())

	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("ensure auth token: %w", err)
	}

	adapter, _, comp, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}

	doctor := media.NewCachedDoctor(adapter, logger)
	probeCtx, probeCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Media.ProbeTimeoutSeconds)*time.Second)
	defer probeCancel()
	if caps, err := doctor.Refresh(probeCtx); err != nil {
		logger.Warn("initial media tool probe failed", "error", err)
	} else if !caps.Ready() {
		logger.Warn("media tooling incomplete, renders will fail",
			"ffmpeg", caps.FFmpeg.Available,
			"ffprobe", caps.FFprobe.Available,
		)
	} else {
		logger.Info("media tooling detected",
			"ffmpeg", caps.FFmpeg.Version,
			"ffprobe", caps.FFprobe.Version,
		)
	}

	fmt.Printf("\nclipdeck engine v%s\n", config.Version)
	fmt.Printf("  API URL:    http://%s:%d\n", cfg.Server.Bind, cfg.Server.Port)
	fmt.Printf("  Auth Token: %s\n", authToken)
	fmt.Printf("  Output Dir: %s\n\n", cfg.Paths.OutputDir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	service := jobs.NewService(repo, comp, cfg.Paths.OutputDir, logger)
	runner := jobs.NewRunner(service, repo, logger)
	go runner.Start(ctx)

	apiServer := api.NewServer(api.ServerConfig{
		Bind:       cfg.Server.Bind,
		Port:       cfg.Server.Port,
		Jobs:       service,
		Repository: repo,
		Runner:     runner,
		Doctor:     doctor,
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

	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func buildEngine(cfg *config.Config, logger *slog.Logger) (*media.Adapter, *footage.Fetcher, *compositor.Compositor, error) {
	adapter, err := media.New(media.Config{
		FFmpegPath:    cfg.Media.FFmpegPath,
		FFprobePath:   cfg.Media.FFprobePath,
		ProbeTimeout:  time.Duration(cfg.Media.ProbeTimeoutSeconds) * time.Second,
		RenderTimeout: time.Duration(cfg.Media.RenderTimeoutSeconds) * time.Second,
		ConcatTimeout: time.Duration(cfg.Media.ConcatTimeoutSeconds) * time.Second,
		Logger:        logger,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("media tooling: %w", err)
	}

	fetcher := footage.NewFetcher(
		time.Duration(cfg.Footage.FetchTimeoutSeconds)*time.Second,
		cfg.Footage.MaxBytes,
		logger,
	)

	comp := compositor.New(compositor.Options{
		Media:        adapter,
		Footage:      fetcher,
		WorkDir:      cfg.Paths.WorkDir,
		SceneWorkers: cfg.Render.SceneWorkers,
		JobTimeout:   time.Duration(cfg.Render.JobTimeoutSeconds) * time.Second,
		OutputFormat: cfg.Render.OutputFormat,
		Logger:       logger,
	})

	return adapter, fetcher, comp, nil
}

func ensureAuthToken(repo jobs.Repository) (string, error) {
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
