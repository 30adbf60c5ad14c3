// Package sched holds the periodic background workers.
package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-marketplace/internal/usecase"
)

// SweepWorker periodically clears category-approval waits that the
// admins never answered, via the use case.
type SweepWorker struct {
	interval   time.Duration
	requestTTL time.Duration
	categories usecase.CategoryUseCase
	log        *zerolog.Logger
}

func NewSweepWorker(interval, requestTTL time.Duration, categories usecase.CategoryUseCase, logger *zerolog.Logger) *SweepWorker {
	sweepLog := logger.With().Str("component", "SweepWorker").Logger()
	return &SweepWorker{
		interval:   interval,
		requestTTL: requestTTL,
		categories: categories,
		log:        &sweepLog,
	}
}

func (w *SweepWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting category sweep worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping category sweep worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.categories.SweepExpired(ctx, w.requestTTL)
			if err != nil {
				w.log.Error().Err(err).Msg("category sweep error")
			}
			if n > 0 {
				w.log.Info().Int("count", n).Msg("expired category requests cleared")
			}
		}
	}
}
