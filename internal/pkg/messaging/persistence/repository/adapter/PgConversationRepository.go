package adapter

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	messaging "github.com/KJsquare9/chat/internal/pkg/messaging/application/domain"
	repository "github.com/KJsquare9/chat/internal/pkg/messaging/persistence/repository/port"
)

type PgConversationRepository struct {
	pool *pgxpool.Pool
}

func NewPgConversationRepository(pool *pgxpool.Pool) *PgConversationRepository {
	return &PgConversationRepository{pool: pool}
}

var _ repository.ConversationRepository = (*PgConversationRepository)(nil)

// FindOrCreateByPair upserts on the canonical pair. The ON CONFLICT arm
// bumps updated_at, so the single statement is both the atomic find-or-create
// and the activity touch for an existing thread.
func (r *PgConversationRepository) FindOrCreateByPair(ctx context.Context, a, b string) (*messaging.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgConversationRepository: nil pool")
	}
	lo, hi := messaging.PairKey(a, b)

	var (
		c      messaging.Conversation
		lastID *string
	)
	err := r.pool.QueryRow(ctx, `
		INSERT INTO conversation (participant_a, participant_b)
		VALUES ($1::uuid, $2::uuid)
		ON CONFLICT (participant_a, participant_b)
		DO UPDATE SET updated_at = now()
		RETURNING id::text, participant_a::text, participant_b::text,
		          last_message_id::text, created_at, updated_at
	`, lo, hi).Scan(&c.ID, &c.ParticipantA, &c.ParticipantB, &lastID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.LastMessageID = lastID
	return &c, nil
}

func (r *PgConversationRepository) GetByID(ctx context.Context, id string) (*messaging.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgConversationRepository: nil pool")
	}
	var (
		c      messaging.Conversation
		lastID *string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, participant_a::text, participant_b::text,
		       last_message_id::text, created_at, updated_at
		FROM conversation
		WHERE id = $1::uuid
	`, id).Scan(&c.ID, &c.ParticipantA, &c.ParticipantB, &lastID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, messaging.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.LastMessageID = lastID
	return &c, nil
}

func (r *PgConversationRepository) SetLastMessage(ctx context.Context, conversationID, messageID string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgConversationRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE conversation
		SET last_message_id = $2::uuid, updated_at = now()
		WHERE id = $1::uuid
	`, conversationID, messageID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return messaging.ErrNotFound
	}
	return nil
}

func (r *PgConversationRepository) ListByParticipant(ctx context.Context, userID string) ([]repository.ConversationSummary, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgConversationRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT c.id::text, c.participant_a::text, c.participant_b::text,
		       c.last_message_id::text, c.created_at, c.updated_at,
		       u.id::text, u.full_name,
		       m.id::text, m.sender_id::text, m.receiver_id::text,
		       m.msg_type, m.body, m.media_url, m.status, m.created_at
		FROM conversation c
		JOIN app_user u
		  ON u.id = CASE WHEN c.participant_a = $1::uuid THEN c.participant_b ELSE c.participant_a END
		LEFT JOIN message m ON m.id = c.last_message_id
		WHERE c.participant_a = $1::uuid OR c.participant_b = $1::uuid
		ORDER BY c.updated_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []repository.ConversationSummary
	for rows.Next() {
		var (
			s         repository.ConversationSummary
			lastID    *string
			msgID     *string
			msgSender *string
			msgRecv   *string
			msgType   *string
			msgBody   *string
			msgMedia  *string
			msgStatus *string
			msgAt     *time.Time
		)
		if err := rows.Scan(
			&s.Conversation.ID, &s.Conversation.ParticipantA, &s.Conversation.ParticipantB,
			&lastID, &s.Conversation.CreatedAt, &s.Conversation.UpdatedAt,
			&s.Other.ID, &s.Other.FullName,
			&msgID, &msgSender, &msgRecv, &msgType, &msgBody, &msgMedia, &msgStatus, &msgAt,
		); err != nil {
			return nil, err
		}
		s.Conversation.LastMessageID = lastID
		if msgID != nil {
			s.LastMessage = &messaging.Message{
				ID:             *msgID,
				ConversationID: s.Conversation.ID,
				SenderID:       deref(msgSender),
				ReceiverID:     deref(msgRecv),
				Type:           messaging.MessageType(deref(msgType)),
				Text:           msgBody,
				MediaURL:       msgMedia,
				Status:         messaging.MessageStatus(deref(msgStatus)),
			}
			if msgAt != nil {
				s.LastMessage.Timestamp = *msgAt
			}
		}
		summaries = append(summaries, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return summaries, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
