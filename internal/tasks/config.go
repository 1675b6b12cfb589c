package tasks

import "time"

// Config carries the queue-wide knobs. Per-task attempt budgets, backoff and
// timeouts live on each task's Config() instead - a library sync and a
// single-book enrichment have nothing in common there.
type Config struct {
	// Workers is how many tasks run concurrently. Syncs and enrichment
	// both talk to Amazon, so this stays small.
	Workers int

	// ReleaseAfter is how long a claimed task may sit without completing
	// before it is handed back to the queue (a crashed worker, usually).
	ReleaseAfter time.Duration

	// CleanupInterval is how often expired completed tasks are purged.
	CleanupInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Workers:         2,
		ReleaseAfter:    15 * time.Minute,
		CleanupInterval: time.Hour,
	}
}
