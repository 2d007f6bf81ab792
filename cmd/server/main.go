package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/style-studio/backend/internal/api"
	"github.com/style-studio/backend/internal/config"
	"github.com/style-studio/backend/internal/history"
	"github.com/style-studio/backend/internal/logging"
	"github.com/style-studio/backend/internal/metrics"
	"github.com/style-studio/backend/internal/storage"
	"github.com/style-studio/backend/internal/style"
	"github.com/style-studio/backend/internal/upload"
	"github.com/style-studio/backend/internal/video"
	"github.com/style-studio/backend/internal/web"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	log := logging.WithPrefix("server")

	// Get the executable's directory for config resolution
	exePath, err := os.Executable()
	if err != nil {
		log.Fatal("failed to get executable path", "err", err)
	}
	exeDir := filepath.Dir(exePath)

	// Load XML configuration
	configPath := filepath.Join(exeDir, "StyleStudio.config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatal("failed to load configuration", "err", err)
	}
	logging.Init(cfg.Advanced.LogLevel)

	// Ensure all data directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatal("failed to create directories", "err", err)
	}

	catalog, err := style.LoadCatalog(cfg.Processing.StyleCatalog)
	if err != nil {
		log.Fatal("failed to load style catalogue", "path", cfg.Processing.StyleCatalog, "err", err)
	}
	if !catalog.Has(cfg.Processing.DefaultStyle) {
		log.Fatal("default style is not in the catalogue", "style", cfg.Processing.DefaultStyle)
	}

	// Initialize storage
	fileStore, err := storage.NewLocalStore(cfg.Storage.UploadsDirectory, cfg.Storage.ResultsDirectory)
	if err != nil {
		log.Fatal("failed to initialize storage", "err", err)
	}

	transfer := style.NewTransfer(catalog)
	videos := video.NewProcessor(cfg.Processing.FFmpegPath, cfg.Processing.FFprobePath, cfg.Storage.TempDirectory, transfer)
	if version, err := videos.Available(context.Background()); err != nil {
		log.Warn("ffmpeg not available, video uploads will fail", "err", err)
	} else {
		log.Info("ffmpeg found", "version", version)
	}

	jobs := upload.NewManager(fileStore, transfer, videos, upload.Options{
		MaxConcurrent: cfg.Processing.MaxConcurrentJobs,
		Retention:     cfg.JobRetention(),
	})

	deps := &api.Dependencies{
		Config:  cfg,
		Store:   fileStore,
		Jobs:    jobs,
		Catalog: catalog,
		FFmpeg:  videos,
		Version: Version,
	}

	var stats *metrics.Metrics
	if cfg.Advanced.EnableMetrics {
		stats = metrics.New()
		stats.TrackRunning(jobs.Running)
		jobs.OnFinish(stats.ObserveJob)
		deps.Metrics = stats
	}

	hist, err := history.Open(cfg.Storage.HistoryDatabase, history.Options{
		Threads:     cfg.Advanced.DuckDBThreads,
		MemoryLimit: cfg.Advanced.DuckDBMemoryLimit,
	})
	if err != nil {
		log.Warn("job history disabled", "err", err)
	} else {
		defer hist.Close()
		jobs.OnFinish(hist.RecordJob)
		deps.History = hist
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start background cleanup of old uploads and results
	go func() {
		interval := cfg.CleanupInterval()
		if interval <= 0 {
			return
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := fileStore.Cleanup(cfg.UploadMaxAge(), cfg.ResultMaxAge())
				if err != nil {
					log.Warn("cleanup finished with errors", "removed", removed, "err", err)
				} else if removed > 0 {
					log.Info("cleanup", "removed", removed)
				}
				if stats != nil {
					stats.CleanupRemoved(removed)
				}
			}
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	api.SetupMiddleware(e, cfg)
	api.RegisterRoutes(e, api.NewHandlers(deps),
		api.NewUploadRateLimiter(cfg.Security.UploadsPerSecond, cfg.Security.UploadBurst))
	if stats != nil {
		e.GET("/metrics", echo.WrapHandler(stats.Handler()))
	}

	// Register embedded frontend if available
	embeddedMode := web.HasEmbeddedFiles()
	if embeddedMode {
		if err := web.RegisterStaticRoutes(e); err != nil {
			log.Warn("failed to register static routes", "err", err)
		}
	}

	// Configure server with settings from XML config
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Print startup banner
	mode := "API only"
	if embeddedMode {
		mode = "Embedded form"
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           AI Style Studio Server                          ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Mode:       %-45s║\n", mode)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Data Dir:  %-46s║\n", cfg.Storage.DataDirectory)
	fmt.Printf("║  Styles:    %-46d║\n", len(catalog.List()))
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	go func() {
		if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "err", err)
	}
}
