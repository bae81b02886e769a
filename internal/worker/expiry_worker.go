package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/voxprohub/service-booking/internal/application"
)

// ExpiryWorker periodically expires pending bookings whose payment deadline
// has passed. It is the fallback for webhooks that never arrive; the
// interval is short so a lapsed hold frees its slots quickly.
type ExpiryWorker struct {
	lifecycle *application.LifecycleService
	interval  time.Duration
	logger    *zap.Logger
}

// NewExpiryWorker creates a worker sweeping at the given interval.
func NewExpiryWorker(lifecycle *application.LifecycleService, interval time.Duration, logger *zap.Logger) *ExpiryWorker {
	return &ExpiryWorker{
		lifecycle: lifecycle,
		interval:  interval,
		logger:    logger,
	}
}

// Start runs the sweep loop until the context is cancelled.
func (w *ExpiryWorker) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("expiry worker started", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("expiry worker stopped")
			return ctx.Err()
		case now := <-ticker.C:
			expired, err := w.lifecycle.ExpireOverdue(ctx, now.UTC())
			if err != nil {
				w.logger.Error("expiry sweep failed", zap.Error(err))
				continue
			}
			if expired > 0 {
				w.logger.Info("expiry sweep completed", zap.Int("expired", expired))
			}
			if _, err := w.lifecycle.ReconcileSlots(ctx); err != nil {
				w.logger.Error("slot reconciliation failed", zap.Error(err))
			}
		}
	}
}
