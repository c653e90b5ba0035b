package usecase

import (
	"context"
	"fmt"

	messaging "github.com/KJsquare9/chat/internal/pkg/messaging/application/domain"
	repository "github.com/KJsquare9/chat/internal/pkg/messaging/persistence/repository/port"
)

// ListConversationsInput wraps the requesting user's identity.
type ListConversationsInput struct {
	UserID string
}

// ListConversationsUseCase returns the user's conversations sorted by most
// recent activity, each with the other participant's projection and a last
// message preview.
type ListConversationsUseCase struct {
	Conversations repository.ConversationRepository
}

func NewListConversationsUseCase(conversations repository.ConversationRepository) *ListConversationsUseCase {
	return &ListConversationsUseCase{Conversations: conversations}
}

func (uc *ListConversationsUseCase) Execute(ctx context.Context, in ListConversationsInput) ([]repository.ConversationSummary, error) {
	if in.UserID == "" {
		return nil, fmt.Errorf("%w: user id is required", messaging.ErrValidation)
	}
	summaries, err := uc.Conversations.ListByParticipant(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return summaries, nil
}
