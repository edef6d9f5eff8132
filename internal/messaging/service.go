package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"log/slog"

	"github.com/tradepost/tradepost/internal/shared"
)

// MaxBodyLength caps a single message body.
const MaxBodyLength = 4000

// AdDirectory resolves the listing a buyer wants to talk about. Implemented
// by the ads service.
type AdDirectory interface {
	OwnerOfPublished(ctx context.Context, adID int64) (int64, error)
}

// Notifier is told about new messages so recipients can be alerted in the
// background.
type Notifier interface {
	MessageReceived(ctx context.Context, recipientID int64, msg Message) error
}

// Service handles conversation business rules.
type Service struct {
	repo     RepositoryPort
	ads      AdDirectory
	notifier Notifier
	logger   *slog.Logger
}

// NewService builds Service instance. notifier may be nil.
func NewService(repo RepositoryPort, ads AdDirectory, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{repo: repo, ads: ads, notifier: notifier, logger: logger}
}

// Start opens (or reuses) the buyer's thread on a published listing and
// appends the first message.
func (s *Service) Start(ctx context.Context, buyerID, adID int64, body string) (Conversation, Message, error) {
	body, err := cleanBody(body)
	if err != nil {
		return Conversation{}, Message{}, err
	}
	sellerID, err := s.ads.OwnerOfPublished(ctx, adID)
	if err != nil {
		return Conversation{}, Message{}, err
	}
	if sellerID == buyerID {
		return Conversation{}, Message{}, fmt.Errorf("%w: cannot message own listing", shared.ErrInvalidInput)
	}
	conv, err := s.repo.FindConversation(ctx, adID, buyerID)
	if errors.Is(err, shared.ErrNotFound) {
		conv, err = s.repo.CreateConversation(ctx, adID, sellerID, buyerID)
	}
	if err != nil {
		return Conversation{}, Message{}, err
	}
	msg, err := s.append(ctx, conv, buyerID, body)
	if err != nil {
		return Conversation{}, Message{}, err
	}
	return conv, msg, nil
}

// Send appends a message to an existing thread. Only participants may post.
func (s *Service) Send(ctx context.Context, actorID, conversationID int64, body string) (Message, error) {
	body, err := cleanBody(body)
	if err != nil {
		return Message{}, err
	}
	conv, err := s.authorized(ctx, actorID, conversationID)
	if err != nil {
		return Message{}, err
	}
	return s.append(ctx, conv, actorID, body)
}

// Messages returns a thread's history and marks it read for the viewer.
func (s *Service) Messages(ctx context.Context, actorID, conversationID int64) ([]Message, error) {
	if _, err := s.authorized(ctx, actorID, conversationID); err != nil {
		return nil, err
	}
	out, err := s.repo.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.MarkRead(ctx, conversationID, actorID); err != nil && s.logger != nil {
		s.logger.Warn("mark conversation read", slog.Int64("conversation_id", conversationID), slog.Any("error", err))
	}
	return out, nil
}

// Inbox lists the actor's threads with unread counts.
func (s *Service) Inbox(ctx context.Context, actorID int64) ([]ConversationSummary, error) {
	return s.repo.ListConversations(ctx, actorID)
}

// UnreadTotal counts unread messages across the actor's inbox.
func (s *Service) UnreadTotal(ctx context.Context, actorID int64) (int64, error) {
	return s.repo.UnreadTotal(ctx, actorID)
}

func (s *Service) authorized(ctx context.Context, actorID, conversationID int64) (Conversation, error) {
	conv, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		return Conversation{}, err
	}
	// Non-participants learn nothing, not even that the thread exists.
	if !conv.Participant(actorID) {
		return Conversation{}, shared.ErrNotFound
	}
	return conv, nil
}

func (s *Service) append(ctx context.Context, conv Conversation, senderID int64, body string) (Message, error) {
	msg, err := s.repo.AppendMessage(ctx, conv.ID, senderID, body)
	if err != nil {
		return Message{}, err
	}
	if s.notifier != nil {
		recipientID := conv.SellerID
		if senderID == conv.SellerID {
			recipientID = conv.BuyerID
		}
		if err := s.notifier.MessageReceived(ctx, recipientID, msg); err != nil && s.logger != nil {
			s.logger.Warn("message notification", slog.Int64("message_id", msg.ID), slog.Any("error", err))
		}
	}
	return msg, nil
}

func cleanBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", fmt.Errorf("%w: message body required", shared.ErrInvalidInput)
	}
	if len(body) > MaxBodyLength {
		return "", fmt.Errorf("%w: message too long", shared.ErrInvalidInput)
	}
	return body, nil
}
