package repository

import (
	"context"

	messaging "github.com/KJsquare9/chat/internal/pkg/messaging/application/domain"
)

// MessageRepository defines persistence for the append-only message log.
type MessageRepository interface {
	// Save appends the message and returns the storage-generated id.
	Save(ctx context.Context, m messaging.Message) (string, error)

	// ListByConversation returns one page of messages, newest first.
	ListByConversation(ctx context.Context, conversationID string, limit, offset int) ([]messaging.Message, error)

	// CountByConversation returns the total number of messages in the
	// conversation, for pagination.
	CountByConversation(ctx context.Context, conversationID string) (int, error)

	// MarkConversationRead transitions every message addressed to readerID
	// in the conversation from sent to read, atomically, and returns how
	// many rows changed. Zero is a valid, successful outcome.
	MarkConversationRead(ctx context.Context, conversationID, readerID string) (int64, error)
}
