package repository

import (
	"context"

	messaging "github.com/KJsquare9/chat/internal/pkg/messaging/application/domain"
)

// ConversationSummary is a conversation joined with what the list endpoint
// shows: the other participant and a preview of the last message.
type ConversationSummary struct {
	Conversation messaging.Conversation
	Other        messaging.UserRef
	LastMessage  *messaging.Message
}

// ConversationRepository defines persistence for two-party conversations.
// FindOrCreateByPair must be atomic at the storage layer so concurrent
// first messages between the same pair cannot create duplicates.
type ConversationRepository interface {
	// FindOrCreateByPair resolves the canonical conversation for the
	// unordered (a, b) pair, creating it on first contact. The returned
	// conversation always has its participants in canonical order.
	FindOrCreateByPair(ctx context.Context, a, b string) (*messaging.Conversation, error)

	// GetByID fetches a conversation or messaging.ErrNotFound.
	GetByID(ctx context.Context, id string) (*messaging.Conversation, error)

	// SetLastMessage bumps last_message_id and updated_at. Callers treat
	// failures as best-effort.
	SetLastMessage(ctx context.Context, conversationID, messageID string) error

	// ListByParticipant returns the user's conversations sorted by most
	// recent activity, with the other participant's projection and a last
	// message preview.
	ListByParticipant(ctx context.Context, userID string) ([]ConversationSummary, error)
}
