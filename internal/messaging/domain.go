package messaging

import "time"

// Conversation is the message thread between an advertisement's owner and
// one interested buyer. One thread exists per (advertisement, buyer) pair.
type Conversation struct {
	ID              int64
	AdvertisementID int64
	SellerID        int64
	BuyerID         int64
	CreatedAt       time.Time
	LastMessageAt   time.Time
}

// Message is one entry in a conversation.
type Message struct {
	ID             int64
	ConversationID int64
	SenderID       int64
	Body           string
	CreatedAt      time.Time
	ReadAt         *time.Time
}

// ConversationSummary is a conversation plus the viewer's unread count.
type ConversationSummary struct {
	Conversation
	Unread int64
}

// Participant reports which side of a conversation a user is on.
func (c Conversation) Participant(userID int64) bool {
	return c.SellerID == userID || c.BuyerID == userID
}
