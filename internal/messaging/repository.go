package messaging

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradepost/tradepost/internal/platform/db"
	"github.com/tradepost/tradepost/internal/shared"
)

// RepositoryPort defines persistence operations for conversations.
type RepositoryPort interface {
	FindConversation(ctx context.Context, advertisementID, buyerID int64) (Conversation, error)
	CreateConversation(ctx context.Context, advertisementID, sellerID, buyerID int64) (Conversation, error)
	GetConversation(ctx context.Context, id int64) (Conversation, error)
	ListConversations(ctx context.Context, userID int64) ([]ConversationSummary, error)

	AppendMessage(ctx context.Context, conversationID, senderID int64, body string) (Message, error)
	ListMessages(ctx context.Context, conversationID int64) ([]Message, error)
	MarkRead(ctx context.Context, conversationID, readerID int64) (int64, error)
	UnreadTotal(ctx context.Context, userID int64) (int64, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const conversationColumns = `id, advertisement_id, seller_id, buyer_id, created_at, last_message_at`

func scanConversation(row pgx.Row) (Conversation, error) {
	var conv Conversation
	err := row.Scan(&conv.ID, &conv.AdvertisementID, &conv.SellerID, &conv.BuyerID, &conv.CreatedAt, &conv.LastMessageAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Conversation{}, shared.ErrNotFound
		}
		return Conversation{}, err
	}
	return conv, nil
}

// FindConversation looks up the thread for one advertisement and buyer.
func (r *Repository) FindConversation(ctx context.Context, advertisementID, buyerID int64) (Conversation, error) {
	return scanConversation(r.pool.QueryRow(ctx, `SELECT `+conversationColumns+` FROM conversations
		WHERE advertisement_id=$1 AND buyer_id=$2`, advertisementID, buyerID))
}

// CreateConversation opens a thread.
func (r *Repository) CreateConversation(ctx context.Context, advertisementID, sellerID, buyerID int64) (Conversation, error) {
	return scanConversation(r.pool.QueryRow(ctx, `INSERT INTO conversations
		(advertisement_id, seller_id, buyer_id) VALUES ($1, $2, $3)
		RETURNING `+conversationColumns, advertisementID, sellerID, buyerID))
}

// GetConversation fetches a thread by id.
func (r *Repository) GetConversation(ctx context.Context, id int64) (Conversation, error) {
	return scanConversation(r.pool.QueryRow(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE id=$1`, id))
}

// ListConversations returns the user's threads, most recently active first,
// each with the count of messages the user has not read yet.
func (r *Repository) ListConversations(ctx context.Context, userID int64) ([]ConversationSummary, error) {
	rows, err := r.pool.Query(ctx, `SELECT c.id, c.advertisement_id, c.seller_id, c.buyer_id, c.created_at, c.last_message_at,
			COUNT(m.id) FILTER (WHERE m.sender_id <> $1 AND m.read_at IS NULL) AS unread
		FROM conversations c
		LEFT JOIN messages m ON m.conversation_id = c.id
		WHERE c.seller_id=$1 OR c.buyer_id=$1
		GROUP BY c.id
		ORDER BY c.last_message_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ConversationSummary
	for rows.Next() {
		var s ConversationSummary
		if err := rows.Scan(&s.ID, &s.AdvertisementID, &s.SellerID, &s.BuyerID, &s.CreatedAt, &s.LastMessageAt, &s.Unread); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// AppendMessage stores a message and bumps the thread's activity stamp.
func (r *Repository) AppendMessage(ctx context.Context, conversationID, senderID int64, body string) (Message, error) {
	var msg Message
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `INSERT INTO messages (conversation_id, sender_id, body)
			VALUES ($1, $2, $3) RETURNING id, conversation_id, sender_id, body, created_at, read_at`,
			conversationID, senderID, body).
			Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Body, &msg.CreatedAt, &msg.ReadAt)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE conversations SET last_message_at=NOW() WHERE id=$1`, conversationID)
		return err
	})
	if err != nil {
		return Message{}, err
	}
	return msg, nil
}

// ListMessages returns a thread's messages oldest first.
func (r *Repository) ListMessages(ctx context.Context, conversationID int64) ([]Message, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, conversation_id, sender_id, body, created_at, read_at
		FROM messages WHERE conversation_id=$1 ORDER BY id`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Body, &msg.CreatedAt, &msg.ReadAt); err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

// MarkRead stamps every message the reader has not sent. Returns how many
// rows were touched.
func (r *Repository) MarkRead(ctx context.Context, conversationID, readerID int64) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE messages SET read_at=NOW()
		WHERE conversation_id=$1 AND sender_id <> $2 AND read_at IS NULL`, conversationID, readerID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// UnreadTotal counts unread messages across all of a user's threads.
func (r *Repository) UnreadTotal(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE (c.seller_id=$1 OR c.buyer_id=$1) AND m.sender_id <> $1 AND m.read_at IS NULL`, userID).Scan(&n)
	return n, err
}

var _ RepositoryPort = (*Repository)(nil)
