package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/tradepost/tradepost/internal/notifications"
	"github.com/tradepost/tradepost/internal/shared"
)

// NewAdPublishedHandler builds the handler that fans a published listing
// out to category subscribers as email tasks. Asynq delivers at least once,
// so the fan-out is guarded by an idempotency key per listing.
func NewAdPublishedHandler(svc *notifications.Service, idem *shared.IdempotencyStore, client *Client, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload AdPublishedPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		key := fmt.Sprintf("ad_published:%d", payload.AdID)
		if err := idem.CheckAndInsert(ctx, key, "notifications"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return nil
			}
			return err
		}
		recipients, err := svc.RecipientsForCategory(ctx, payload.CategoryID)
		if err != nil {
			_ = idem.Delete(ctx, key)
			return err
		}
		for _, rec := range recipients {
			_, err := client.EnqueueSendEmail(ctx, SendEmailPayload{
				To:      rec.Email,
				Subject: "New listing: " + payload.Title,
				Body:    fmt.Sprintf("A new listing matching your subscription was just published (#%d).", payload.AdID),
			})
			if err != nil && logger != nil {
				logger.Warn("fan-out enqueue", slog.Int64("user_id", rec.UserID), slog.Any("error", err))
			}
		}
		if logger != nil {
			logger.Info("ad publish fan-out",
				slog.Int64("ad_id", payload.AdID),
				slog.Int("recipients", len(recipients)))
		}
		return nil
	}
}

// NewMessageReceivedHandler builds the handler that alerts a user about a
// new message. A recipient who deactivated in the meantime is skipped.
func NewMessageReceivedHandler(svc *notifications.Service, client *Client, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload MessageReceivedPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		email, err := svc.EmailOf(ctx, payload.RecipientID)
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		_, err = client.EnqueueSendEmail(ctx, SendEmailPayload{
			To:      email,
			Subject: "You have a new message",
			Body:    payload.Preview,
		})
		return err
	}
}
