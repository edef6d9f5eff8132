package notifications

import "time"

// Subscription is a user's request to hear about new listings in a category.
type Subscription struct {
	ID         int64
	UserID     int64
	CategoryID int64
	CreatedAt  time.Time
}

// Recipient is a subscriber resolved to a deliverable address.
type Recipient struct {
	UserID int64
	Email  string
}
