package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/tradepost/tradepost/internal/ads"
)

// NewExpireAdsHandler builds the handler behind the nightly listing-expiry
// cron.
func NewExpireAdsHandler(svc *ads.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		n, err := svc.ExpireOverdue(ctx)
		if err != nil {
			if logger != nil {
				logger.Error("expire listings", slog.Any("error", err))
			}
			return err
		}
		if logger != nil {
			logger.Info("expired listings", slog.Int64("count", n), slog.String("job", "ads_expire"))
		}
		return nil
	}
}
