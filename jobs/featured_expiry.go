package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/farmlink/farmlink-admin/internal/sellers"
)

// NewFeaturedExpiryHandler returns the asynq handler that demotes sellers
// whose featured window has passed. Scheduled hourly.
func NewFeaturedExpiryHandler(logger *slog.Logger, svc *sellers.Service) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		expired, err := svc.ExpireFeatured(ctx, time.Now().UTC())
		if err != nil {
			logger.Error("featured expiry failed", slog.Any("error", err))
			return err
		}
		if expired > 0 {
			logger.Info("featured sellers expired", slog.Int64("count", expired))
		}
		return nil
	}
}
