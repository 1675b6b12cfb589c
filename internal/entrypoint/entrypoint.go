// Package entrypoint wires the application together and runs the HTTP server.
package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"gorm.io/gorm"

	"github.com/mrlokans/kindle-sync/internal/amazon"
	"github.com/mrlokans/kindle-sync/internal/config"
	"github.com/mrlokans/kindle-sync/internal/covers"
	"github.com/mrlokans/kindle-sync/internal/database"
	"github.com/mrlokans/kindle-sync/internal/database/books"
	"github.com/mrlokans/kindle-sync/internal/database/progress"
	"github.com/mrlokans/kindle-sync/internal/database/settings"
	"github.com/mrlokans/kindle-sync/internal/entities"
	http_controllers "github.com/mrlokans/kindle-sync/internal/http"
	"github.com/mrlokans/kindle-sync/internal/metadata"
	"github.com/mrlokans/kindle-sync/internal/regions"
	"github.com/mrlokans/kindle-sync/internal/retry"
	"github.com/mrlokans/kindle-sync/internal/scheduler"
	"github.com/mrlokans/kindle-sync/internal/sync"
	"github.com/mrlokans/kindle-sync/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT or SIGTERM.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before closing the listener.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// Run wires all dependencies and serves until shutdown.
func Run(cfg *config.Config, version string) {
	log.Printf("Starting kindle-sync v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	booksRepo := books.NewRepository(db.DB)
	settingsRepo := settings.NewRepository(db.DB)
	progressRepo := progress.NewRepository(db.DB)

	session, scraper, err := buildScraper(cfg, settingsRepo)
	if err != nil {
		log.Fatalf("Failed to initialize scraper: %v", err)
	}

	// Enrichment is best-effort and entirely optional.
	var enricher *metadata.Enricher
	if cfg.Catalog.Enabled {
		goodreads := metadata.NewGoodreadsClient(metadata.GoodreadsConfig{
			UserAgent:  cfg.Amazon.UserAgent,
			MaxRetries: cfg.Catalog.MaxRetries,
			RetryDelay: cfg.Catalog.RetryDelay,
		})
		enricher = metadata.NewEnricher(session, goodreads, booksRepo)
	}

	syncCfg := sync.ServiceConfig{
		Scraper:  scraper,
		Books:    booksRepo,
		Progress: progressRepo,
		Settings: settingsRepo,
		Workers:  cfg.Scrape.Workers,
	}
	if enricher != nil {
		syncCfg.Enricher = enricher
	}
	syncService := sync.NewService(syncCfg)

	coverCacheDir := cfg.Covers.Dir
	if coverCacheDir == "" {
		coverCacheDir = filepath.Join(filepath.Dir(cfg.Database.Path), "covers")
	}
	coverCache, err := covers.NewCache(coverCacheDir)
	if err != nil {
		log.Printf("WARNING: Failed to initialize cover cache: %v", err)
		coverCache = nil
	} else {
		log.Printf("Cover cache initialized at %s", coverCacheDir)
		if enricher != nil {
			enricher.SetCoverInvalidator(coverCache)
		}
	}

	// Task queue for background syncs and enrichment.
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.DefaultConfig()
		if cfg.Tasks.Workers > 0 {
			taskCfg.Workers = cfg.Tasks.Workers
		}
		if cfg.Tasks.ReleaseAfter > 0 {
			taskCfg.ReleaseAfter = cfg.Tasks.ReleaseAfter
		}
		if cfg.Tasks.CleanupInterval > 0 {
			taskCfg.CleanupInterval = cfg.Tasks.CleanupInterval
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		queues := []backlite.Queue{tasks.NewLibrarySyncQueue(syncService)}
		if enricher != nil {
			queues = append(queues, tasks.NewEnrichBookQueue(enricher))
		}
		taskClient.Register(queues...)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// Scheduled incremental syncs.
	syncScheduler := scheduler.NewLibrarySyncScheduler(syncService, cfg.SyncSchedule)
	if err := syncScheduler.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start sync scheduler: %v", err)
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:    db,
		Books:       booksRepo,
		Progress:    progressRepo,
		SyncService: syncService,
		TaskClient:  taskClient,
		CoverCache:  coverCache,
		ExportDir:   cfg.Export.Dir,
		Version:     version,
	})

	onShutdown := func(ctx context.Context) {
		syncScheduler.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}

// buildScraper builds the authenticated scraper. Settings stored in the
// database win over environment defaults, so a region or cookie file picked
// through the CLI survives restarts.
func buildScraper(cfg *config.Config, settingsRepo *settings.Repository) (*amazon.Session, *amazon.Scraper, error) {
	region := regions.Region(cfg.Amazon.Region)
	if setting, err := settingsRepo.GetSetting(entities.SettingRegion); err == nil && setting.Value != "" {
		region = regions.Region(setting.Value)
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	cookieFile := cfg.Amazon.CookieFile
	if setting, err := settingsRepo.GetSetting(entities.SettingCookieFile); err == nil && setting.Value != "" {
		cookieFile = setting.Value
	}
	if _, err := os.Stat(cookieFile); os.IsNotExist(err) {
		log.Printf("WARNING: cookie file %s does not exist. Run 'cookies-import' before syncing.", cookieFile)
		cookieFile = ""
	}

	session, err := amazon.NewSession(amazon.SessionConfig{
		CookieFile:     cookieFile,
		UserAgent:      cfg.Amazon.UserAgent,
		RequestTimeout: cfg.Scrape.RequestTimeout,
		RatePerSecond:  cfg.Scrape.RatePerSecond,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create session: %w", err)
	}

	scraper, err := amazon.NewScraper(session, amazon.ScraperConfig{
		Region: region,
		Retry: retry.Policy{
			MaxAttempts: cfg.Scrape.MaxRetries,
			Delay:       cfg.Scrape.RetryDelay,
			Backoff:     cfg.Scrape.RetryBackoff,
		},
		MaxPages: cfg.Scrape.MaxPages,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create scraper: %w", err)
	}

	return session, scraper, nil
}
