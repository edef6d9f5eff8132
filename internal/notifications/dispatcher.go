package notifications

import (
	"context"

	"github.com/tradepost/tradepost/internal/ads"
	"github.com/tradepost/tradepost/internal/messaging"
)

// Enqueuer submits notification work to the background queue. Implemented
// by the jobs client.
type Enqueuer interface {
	EnqueueAdPublished(ctx context.Context, adID, categoryID int64, title string) error
	EnqueueMessageReceived(ctx context.Context, recipientID int64, preview string) error
}

// Dispatcher turns domain events into queued notification tasks. It feeds
// the ads publish fan-out and the messaging alerts.
type Dispatcher struct {
	queue Enqueuer
}

// NewDispatcher builds a Dispatcher.
func NewDispatcher(queue Enqueuer) *Dispatcher {
	return &Dispatcher{queue: queue}
}

// AdPublished queues subscriber fan-out for a freshly published listing.
func (d *Dispatcher) AdPublished(ctx context.Context, ad ads.Advertisement) error {
	return d.queue.EnqueueAdPublished(ctx, ad.ID, ad.CategoryID, ad.Title)
}

// MessageReceived queues an alert for the recipient of a new message.
func (d *Dispatcher) MessageReceived(ctx context.Context, recipientID int64, msg messaging.Message) error {
	preview := msg.Body
	if len(preview) > 120 {
		preview = preview[:120]
	}
	return d.queue.EnqueueMessageReceived(ctx, recipientID, preview)
}

var (
	_ ads.Publisher      = (*Dispatcher)(nil)
	_ messaging.Notifier = (*Dispatcher)(nil)
)
