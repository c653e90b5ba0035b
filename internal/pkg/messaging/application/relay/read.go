package relay

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	messaging "github.com/KJsquare9/chat/internal/pkg/messaging/application/domain"
	"github.com/KJsquare9/chat/internal/pkg/messaging/events"
)

// MarkAsReadInput identifies the conversation the reader has just viewed.
type MarkAsReadInput struct {
	ReaderID       string
	ConversationID string
}

// MarkAsRead transitions every message addressed to the reader in the
// conversation from sent to read, then notifies the other participant's
// live sessions when at least one message changed. Idempotent: a second
// call with nothing left to transition succeeds with zero transitions and
// sends no notification.
func (r *Relay) MarkAsRead(ctx context.Context, in MarkAsReadInput) (int64, error) {
	if in.ReaderID == "" || in.ConversationID == "" {
		return 0, fmt.Errorf("%w: reader and conversation ids are required", messaging.ErrValidation)
	}

	conv, err := r.conversations.GetByID(ctx, in.ConversationID)
	if err != nil {
		if errors.Is(err, messaging.ErrNotFound) {
			return 0, messaging.ErrNotFound
		}
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !conv.HasParticipant(in.ReaderID) {
		return 0, messaging.ErrNotParticipant
	}

	changed, err := r.messages.MarkConversationRead(ctx, in.ConversationID, in.ReaderID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	// Only a call that actually transitioned messages notifies the other
	// side; zero-count calls stay quiet to avoid read-receipt spam.
	if changed > 0 {
		other := conv.OtherParticipant(in.ReaderID)
		payload := events.Marshal(events.MessagesRead{
			Event:          events.TypeMessagesRead,
			ConversationID: in.ConversationID,
			ReaderID:       in.ReaderID,
		})
		delivered := r.registry.Broadcast(other, payload)
		r.logger.Debug("read receipt forwarded",
			zap.String("conversation", in.ConversationID),
			zap.String("reader", in.ReaderID),
			zap.Int("sessions", delivered))
	}

	return changed, nil
}
