package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/farmlink/farmlink-admin/internal/activity"
)

// NewAuditPurgeHandler returns the asynq handler that prunes activity-log
// rows older than the retention window. Scheduled daily.
func NewAuditPurgeHandler(logger *slog.Logger, svc *activity.Service, retention time.Duration) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		purged, err := svc.Purge(ctx, retention, time.Now().UTC())
		if err != nil {
			logger.Error("activity purge failed", slog.Any("error", err))
			return err
		}
		if purged > 0 {
			logger.Info("activity entries purged", slog.Int64("count", purged))
		}
		return nil
	}
}
