package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/princekumarofficial/stories-viewer/internal/config"
	"github.com/princekumarofficial/stories-viewer/internal/storage/postgres"
)

// ExpiryWorker periodically soft-deletes stories past their expiry. Expiry
// is enforced here, server-side only: viewer clients trust the feed they are
// given and never re-check lifetimes.
type ExpiryWorker struct {
	storage  *postgres.Postgres
	interval time.Duration
	logger   *slog.Logger
}

func NewExpiryWorker(storage *postgres.Postgres, interval time.Duration) *ExpiryWorker {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	return &ExpiryWorker{
		storage:  storage,
		interval: interval,
		logger:   logger,
	}
}

func (ew *ExpiryWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(ew.interval)
	defer ticker.Stop()

	ew.logger.Info("Expiry worker started",
		"interval", ew.interval.String())

	// Run once immediately on startup
	ew.sweep()

	for {
		select {
		case <-ctx.Done():
			ew.logger.Info("Expiry worker shutting down")
			return
		case <-ticker.C:
			ew.sweep()
		}
	}
}

func (ew *ExpiryWorker) sweep() {
	startTime := time.Now()

	count, err := ew.storage.SoftDeleteExpiredStories()
	if err != nil {
		ew.logger.Error("Failed to sweep expired stories",
			"error", err.Error(),
			"duration_ms", time.Since(startTime).Milliseconds())
		return
	}

	ew.logger.Info("Completed expired stories sweep",
		"stories_deleted", count,
		"duration_ms", time.Since(startTime).Milliseconds())
}

func main() {
	cfg := config.MustLoad()

	storage, err := postgres.NewPostgres(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	slog.Info("Connected to Postgres database")

	worker := NewExpiryWorker(storage, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		slog.Info("Received shutdown signal")
		cancel()
	}()

	worker.Start(ctx)

	slog.Info("Expiry worker stopped")
}
