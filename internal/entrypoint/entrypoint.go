package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"bibliotech/internal/catalog"
	"bibliotech/internal/config"
	"bibliotech/internal/database"
	"bibliotech/internal/database/books"
	catalogdb "bibliotech/internal/database/catalog"
	http_controllers "bibliotech/internal/http"
	"bibliotech/internal/scheduler"
	"bibliotech/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop the task queue)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// newSynchronizer wires the pipeline against the given database.
func newSynchronizer(cfg *config.Config, db *database.Database) *catalog.Synchronizer {
	return catalog.NewSynchronizer(catalog.Config{
		Statuses:   catalogdb.NewRepository(db.DB),
		Books:      books.NewRepository(db.DB),
		Fetcher:    catalog.NewHTTPFetcher(cfg.Catalog.URL, cfg.Catalog.StagingDir, cfg.Catalog.FetchTimeout),
		Extractor:  catalog.NewArchiveExtractor(cfg.Catalog.StagingDir),
		Walker:     catalog.NewFileWalker(),
		StagingDir: cfg.Catalog.StagingDir,
		Workers:    cfg.Catalog.ImportWorkers,
	})
}

// RunSync performs one foreground synchronization and returns its outcome.
// Used by the "sync" CLI command.
func RunSync(cfg *config.Config) error {
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	synchronizer := newSynchronizer(cfg, db)
	outcome, err := synchronizer.Synchronize(context.Background())
	if err != nil {
		return fmt.Errorf("synchronization failed: %w", err)
	}

	log.Printf("Synchronization finished: %s", outcome)
	return nil
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting bibliotech v%s", version)

	// Initialize database
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
	catalogRepo := catalogdb.NewRepository(db.DB)
	synchronizer := newSynchronizer(cfg, db)

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
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

		taskClient.Register(
			tasks.NewSynchronizeCatalogQueue(synchronizer),
		)

		// Start task workers in background
		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// Schedule periodic synchronization if enabled
	var syncScheduler *scheduler.CatalogSyncScheduler
	if cfg.CatalogSync.Enabled && taskClient != nil {
		syncScheduler = scheduler.NewCatalogSyncScheduler(taskClient, cfg.CatalogSync.Schedule)
		if err := syncScheduler.Start(context.Background()); err != nil {
			log.Fatalf("Failed to start catalog sync scheduler: %v", err)
		}
	} else if cfg.CatalogSync.Enabled {
		log.Printf("Catalog sync scheduler requires the task queue; scheduling disabled")
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:   db,
		Books:      booksRepo,
		Catalog:    catalogRepo,
		TaskClient: taskClient,
		Version:    version,
	})

	onShutdown := func(ctx context.Context) {
		if syncScheduler != nil {
			syncScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
