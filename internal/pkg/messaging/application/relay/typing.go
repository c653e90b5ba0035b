package relay

import (
	"context"

	"go.uber.org/zap"

	"github.com/KJsquare9/chat/internal/pkg/messaging/events"
)

// TypingInput identifies a typing signal's conversation and target.
type TypingInput struct {
	SenderID       string
	ConversationID string
	ReceiverID     string
}

// Typing forwards a typing indicator to the receiver's live sessions.
// Ephemeral and unpersisted: it silently no-ops when the input is
// malformed, the sender is not a participant, or the receiver is offline.
// This is a UX signal, not a guaranteed-delivery channel.
func (r *Relay) Typing(ctx context.Context, in TypingInput) {
	r.forwardTyping(ctx, events.TypeTyping, in)
}

// StopTyping is the counterpart signal ending a typing indication.
func (r *Relay) StopTyping(ctx context.Context, in TypingInput) {
	r.forwardTyping(ctx, events.TypeStopTyping, in)
}

func (r *Relay) forwardTyping(ctx context.Context, event string, in TypingInput) {
	if in.SenderID == "" || in.ConversationID == "" || in.ReceiverID == "" {
		return
	}

	// Membership check guards against spoofed signals into conversations
	// the sender cannot see. Lookup failures stay silent too.
	conv, err := r.conversations.GetByID(ctx, in.ConversationID)
	if err != nil {
		r.logger.Debug("typing signal dropped", zap.String("conversation", in.ConversationID), zap.Error(err))
		return
	}
	if !conv.HasParticipant(in.SenderID) {
		return
	}

	payload := events.Marshal(events.TypingSignal{
		Event:          event,
		ConversationID: in.ConversationID,
		SenderID:       in.SenderID,
	})
	r.registry.Broadcast(in.ReceiverID, payload)
}
