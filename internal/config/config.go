package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Database
		Amazon
		Scrape
		Catalog
		Export
		Covers
		SyncSchedule
		Tasks
		Global
	}

	HTTP struct {
		Port int32
		Host string
	}
	Database struct {
		Path string
	}
	Amazon struct {
		Region     string
		CookieFile string
		UserAgent  string
	}
	Scrape struct {
		RequestTimeout time.Duration
		MaxRetries     int
		RetryDelay     time.Duration
		RetryBackoff   float64
		Workers        int     // concurrent books per sync
		MaxPages       int     // pagination safety cap per book
		RatePerSecond  float64 // request throttle against Amazon
	}
	Catalog struct {
		Enabled    bool
		MaxRetries int
		RetryDelay time.Duration
	}
	Export struct {
		Dir string
	}
	Covers struct {
		Dir string
	}
	SyncSchedule struct {
		Enabled  bool
		Schedule string // Cron format: "0 6 * * *" = daily at 06:00
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8288)
	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)

	v.SetDefault("amazon_region", "global")
	v.SetDefault("amazon_cookie_file", DefaultCookieFile)
	v.SetDefault("amazon_user_agent", DefaultUserAgent)

	v.SetDefault("scrape_request_timeout", "30s")
	v.SetDefault("scrape_max_retries", 3)
	v.SetDefault("scrape_retry_delay", "2s")
	v.SetDefault("scrape_retry_backoff", 2.0)
	v.SetDefault("scrape_workers", 4)
	v.SetDefault("scrape_max_pages", 500)
	v.SetDefault("scrape_rate_per_second", 2.0)

	v.SetDefault("catalog_enabled", true)
	v.SetDefault("catalog_max_retries", 2)
	v.SetDefault("catalog_retry_delay", "1s")

	v.SetDefault("export_dir", "./exports")
	v.SetDefault("covers_dir", "./covers")

	v.SetDefault("sync_schedule_enabled", false)
	v.SetDefault("sync_schedule", "0 6 * * *") // Daily at 06:00

	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Amazon: Amazon{
			Region:     v.GetString("AMAZON_REGION"),
			CookieFile: v.GetString("AMAZON_COOKIE_FILE"),
			UserAgent:  v.GetString("AMAZON_USER_AGENT"),
		},
		Scrape: Scrape{
			RequestTimeout: v.GetDuration("SCRAPE_REQUEST_TIMEOUT"),
			MaxRetries:     v.GetInt("SCRAPE_MAX_RETRIES"),
			RetryDelay:     v.GetDuration("SCRAPE_RETRY_DELAY"),
			RetryBackoff:   v.GetFloat64("SCRAPE_RETRY_BACKOFF"),
			Workers:        v.GetInt("SCRAPE_WORKERS"),
			MaxPages:       v.GetInt("SCRAPE_MAX_PAGES"),
			RatePerSecond:  v.GetFloat64("SCRAPE_RATE_PER_SECOND"),
		},
		Catalog: Catalog{
			Enabled:    v.GetBool("CATALOG_ENABLED"),
			MaxRetries: v.GetInt("CATALOG_MAX_RETRIES"),
			RetryDelay: v.GetDuration("CATALOG_RETRY_DELAY"),
		},
		Export: Export{
			Dir: v.GetString("EXPORT_DIR"),
		},
		Covers: Covers{
			Dir: v.GetString("COVERS_DIR"),
		},
		SyncSchedule: SyncSchedule{
			Enabled:  v.GetBool("SYNC_SCHEDULE_ENABLED"),
			Schedule: v.GetString("SYNC_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
	}
}
