package usecase

import (
	"context"
	"errors"
	"fmt"

	messaging "github.com/KJsquare9/chat/internal/pkg/messaging/application/domain"
	repository "github.com/KJsquare9/chat/internal/pkg/messaging/persistence/repository/port"
)

// GetMessagesInput carries parameters to fetch one page of conversation
// history. Page is 1-based.
type GetMessagesInput struct {
	ConversationID string
	UserID         string
	Page           int
	Limit          int
}

// GetMessagesOutput is a display-ready page: oldest message first, plus the
// totals the client needs for pagination.
type GetMessagesOutput struct {
	Messages      []messaging.Message
	Page          int
	TotalPages    int
	TotalMessages int
}

// GetMessagesUseCase fetches paginated history for a conversation the
// requesting user belongs to.
type GetMessagesUseCase struct {
	Conversations repository.ConversationRepository
	Messages      repository.MessageRepository
}

func NewGetMessagesUseCase(conversations repository.ConversationRepository, messages repository.MessageRepository) *GetMessagesUseCase {
	return &GetMessagesUseCase{Conversations: conversations, Messages: messages}
}

// Execute authorizes the reader, then returns the requested page. Storage
// order is newest-first; the page is reversed before returning so clients
// can render oldest-at-top directly.
func (uc *GetMessagesUseCase) Execute(ctx context.Context, in GetMessagesInput) (*GetMessagesOutput, error) {
	if in.ConversationID == "" || in.UserID == "" {
		return nil, fmt.Errorf("%w: conversation and user ids are required", messaging.ErrValidation)
	}
	page := in.Page
	if page < 1 {
		page = 1
	}
	limit := in.Limit
	if limit <= 0 {
		limit = 20
	}

	conv, err := uc.Conversations.GetByID(ctx, in.ConversationID)
	if err != nil {
		if errors.Is(err, messaging.ErrNotFound) {
			return nil, messaging.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !conv.HasParticipant(in.UserID) {
		return nil, messaging.ErrNotParticipant
	}

	msgs, err := uc.Messages.ListByConversation(ctx, in.ConversationID, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	total, err := uc.Messages.CountByConversation(ctx, in.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	// Reverse in place: storage gives newest-first.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	totalPages := (total + limit - 1) / limit
	return &GetMessagesOutput{
		Messages:      msgs,
		Page:          page,
		TotalPages:    totalPages,
		TotalMessages: total,
	}, nil
}
