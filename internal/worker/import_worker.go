package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/catalog_import/internal/models"
	"github.com/GTDGit/catalog_import/internal/service"
	"github.com/GTDGit/catalog_import/internal/utils"
)

// ImportRunner runs one import to completion.
type ImportRunner interface {
	Run(ctx context.Context, opts service.RunOptions) (*models.ImportRun, error)
}

// ImportWorker periodically imports the whole catalog.
type ImportWorker struct {
	imports  ImportRunner
	interval time.Duration
}

// NewImportWorker constructs an ImportWorker.
func NewImportWorker(imports ImportRunner, interval time.Duration) *ImportWorker {
	return &ImportWorker{
		imports:  imports,
		interval: interval,
	}
}

// Start begins the periodic import loop and listens for context cancellation.
// A zero interval disables the worker.
func (w *ImportWorker) Start(ctx context.Context) {
	if w.interval <= 0 {
		log.Info().Msg("Import worker disabled")
		return
	}
	log.Info().Dur("interval", w.interval).Msg("Starting import worker")

	// Run immediately on start
	w.run(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Import worker stopped")
			return
		}
	}
}

func (w *ImportWorker) run(ctx context.Context) {
	start := time.Now()
	run, err := w.imports.Run(ctx, service.RunOptions{Trigger: "worker"})
	switch {
	case errors.Is(err, utils.ErrImportRunning):
		log.Info().Msg("Import already running, skipping scheduled run")
		return
	case run == nil && err != nil:
		log.Error().Err(err).Msg("Failed to start scheduled import")
		return
	case err != nil:
		log.Error().Err(err).Str("run_id", run.ID).Msg("Scheduled import failed")
		return
	}

	log.Info().
		Str("run_id", run.ID).
		Str("status", string(run.Status)).
		Int("succeeded", run.Succeeded).
		Int("failed", run.Failed).
		Dur("duration", time.Since(start)).
		Msg("Scheduled import completed")
}
