package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	messaging "github.com/KJsquare9/chat/internal/pkg/messaging/application/domain"
	repository "github.com/KJsquare9/chat/internal/pkg/messaging/persistence/repository/port"
)

type PgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

var _ repository.MessageRepository = (*PgMessageRepository)(nil)

func (r *PgMessageRepository) Save(ctx context.Context, m messaging.Message) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgMessageRepository: nil pool")
	}
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO message (
			conversation_id, sender_id, receiver_id, msg_type, body, media_url, status, created_at
		) VALUES ($1::uuid, $2::uuid, $3::uuid, $4, $5, $6, $7, $8)
		RETURNING id::text
	`, m.ConversationID, m.SenderID, m.ReceiverID, string(m.Type), m.Text, m.MediaURL, string(m.Status), m.Timestamp).Scan(&id)
	return id, err
}

func (r *PgMessageRepository) ListByConversation(ctx context.Context, conversationID string, limit, offset int) ([]messaging.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgMessageRepository: nil pool")
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, conversation_id::text, sender_id::text, receiver_id::text,
		       msg_type, body, media_url, status, created_at
		FROM message
		WHERE conversation_id = $1::uuid
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, conversationID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []messaging.Message
	for rows.Next() {
		var (
			m       messaging.Message
			msgType string
			status  string
		)
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.ReceiverID,
			&msgType, &m.Text, &m.MediaURL, &status, &m.Timestamp); err != nil {
			return nil, err
		}
		m.Type = messaging.MessageType(msgType)
		m.Status = messaging.MessageStatus(status)
		msgs = append(msgs, m)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return msgs, nil
}

func (r *PgMessageRepository) CountByConversation(ctx context.Context, conversationID string) (int, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("PgMessageRepository: nil pool")
	}
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM message WHERE conversation_id = $1::uuid`,
		conversationID,
	).Scan(&count)
	return count, err
}

// MarkConversationRead is a single bulk UPDATE, so two concurrent read
// receipts from the same reader cannot double-count: the second one simply
// matches zero rows.
func (r *PgMessageRepository) MarkConversationRead(ctx context.Context, conversationID, readerID string) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("PgMessageRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE message
		SET status = 'read'
		WHERE conversation_id = $1::uuid AND receiver_id = $2::uuid AND status <> 'read'
	`, conversationID, readerID)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
