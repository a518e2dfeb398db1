package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Catalog
		CatalogSync
		Tasks
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Catalog struct {
		URL           string
		StagingDir    string
		FetchTimeout  time.Duration
		ImportWorkers int
	}
	CatalogSync struct {
		Enabled  bool
		Schedule string // Cron format: "0 2 * * *" = daily at 02:00
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8185)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("catalog_url", DefaultCatalogURL)
	v.SetDefault("catalog_staging_dir", DefaultStagingDir)
	v.SetDefault("catalog_fetch_timeout", "30m")
	v.SetDefault("catalog_import_workers", 4)
	v.SetDefault("catalog_sync_enabled", true)
	v.SetDefault("catalog_sync_schedule", "0 2 * * *") // Daily at 02:00

	// Task queue defaults. The synchronization queue depends on a single
	// worker to keep at most one run in flight.
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "3h")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Catalog: Catalog{
			URL:           v.GetString("CATALOG_URL"),
			StagingDir:    v.GetString("CATALOG_STAGING_DIR"),
			FetchTimeout:  v.GetDuration("CATALOG_FETCH_TIMEOUT"),
			ImportWorkers: v.GetInt("CATALOG_IMPORT_WORKERS"),
		},
		CatalogSync: CatalogSync{
			Enabled:  v.GetBool("CATALOG_SYNC_ENABLED"),
			Schedule: v.GetString("CATALOG_SYNC_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
	}
}
