package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeAdPublished fans a freshly published listing out to
	// category subscribers.
	TaskTypeAdPublished = "notify:ad_published"
	// TaskTypeMessageReceived alerts a user about a new message.
	TaskTypeMessageReceived = "notify:message_received"
	// TaskTypeExpireAds flips published listings past their expiry.
	TaskTypeExpireAds = "ads:expire"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// HandleSendEmailTask processes TaskTypeSendEmail tasks.
func HandleSendEmailTask(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// Placeholder: integrate with SMTP/Mailpit in phase 2.
	fmt.Printf("[jobs] send email to %s subject=%s\n", payload.To, payload.Subject)
	return nil
}

// AdPublishedPayload identifies the listing to fan out.
type AdPublishedPayload struct {
	AdID       int64  `json:"ad_id"`
	CategoryID int64  `json:"category_id"`
	Title      string `json:"title"`
}

// NewAdPublishedTask constructs an Asynq task.
func NewAdPublishedTask(payload AdPublishedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAdPublished, data), nil
}

// MessageReceivedPayload identifies the recipient of a new message.
type MessageReceivedPayload struct {
	RecipientID int64  `json:"recipient_id"`
	Preview     string `json:"preview"`
}

// NewMessageReceivedTask constructs an Asynq task.
func NewMessageReceivedTask(payload MessageReceivedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeMessageReceived, data), nil
}

// NewExpireAdsTask constructs the nightly listing-expiry task.
func NewExpireAdsTask() *asynq.Task {
	return asynq.NewTask(TaskTypeExpireAds, nil)
}
