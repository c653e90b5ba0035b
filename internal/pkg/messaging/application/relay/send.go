package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	messaging "github.com/KJsquare9/chat/internal/pkg/messaging/application/domain"
	"github.com/KJsquare9/chat/internal/pkg/messaging/application/task"
	"github.com/KJsquare9/chat/internal/pkg/messaging/events"
)

// SendInput carries one inbound send request. ConversationID is optional:
// when present it is only membership-checked; the authoritative conversation
// is always resolved server-side from the canonical participant pair.
type SendInput struct {
	SenderID       string
	ReceiverID     string
	ConversationID string
	Type           messaging.MessageType
	Text           *string
	MediaURL       *string
}

// SendResult is what the transport needs to acknowledge the sender.
type SendResult struct {
	Message messaging.Message
	Sender  messaging.UserRef
}

// SendMessage runs the relay send path: validate, authorize, persist,
// route. No partial state is created for invalid or unauthorized input, and
// routing never blocks or fails an already-persisted message — durability
// must not depend on recipient connectivity.
func (r *Relay) SendMessage(ctx context.Context, in SendInput) (*SendResult, error) {
	msgType := in.Type
	if msgType == "" {
		msgType = messaging.MessageTypeText
	}

	// Validate before touching any store.
	msg, err := messaging.NewMessage(messaging.Message{
		SenderID:   in.SenderID,
		ReceiverID: in.ReceiverID,
		Type:       msgType,
		Text:       in.Text,
		MediaURL:   in.MediaURL,
	})
	if err != nil {
		return nil, err
	}

	// Authorize: an explicitly referenced conversation must contain the
	// sender before anything is written.
	if in.ConversationID != "" {
		conv, err := r.conversations.GetByID(ctx, in.ConversationID)
		if err != nil {
			if errors.Is(err, messaging.ErrNotFound) {
				return nil, messaging.ErrNotFound
			}
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		if !conv.HasParticipant(in.SenderID) {
			return nil, messaging.ErrNotParticipant
		}
	}

	conv, err := r.conversations.FindOrCreateByPair(ctx, in.SenderID, in.ReceiverID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	msg.ConversationID = conv.ID
	id, err := r.messages.Save(ctx, *msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	msg.ID = id

	// Best-effort metadata bump, detached from both the request context and
	// the response: its failure must never fail the send.
	go r.bumpLastMessage(conv.ID, msg.ID)

	sender := r.senderRef(ctx, in.SenderID)
	r.route(ctx, *msg, sender)

	return &SendResult{Message: *msg, Sender: sender}, nil
}

// route delivers to every live session of the receiver, or falls back to
// the push queue when there are none. Failures here are DeliveryErrors:
// logged, never surfaced, since the message is already durable.
func (r *Relay) route(ctx context.Context, msg messaging.Message, sender messaging.UserRef) {
	if r.registry.IsOnline(msg.ReceiverID) {
		payload := events.Marshal(events.ReceiveMessage{
			Event:   events.TypeReceiveMessage,
			Message: events.NewMessagePayload(msg, sender),
		})
		delivered := r.registry.Broadcast(msg.ReceiverID, payload)
		r.logger.Debug("message delivered",
			zap.String("message", msg.ID),
			zap.String("receiver", msg.ReceiverID),
			zap.Int("sessions", delivered))
		return
	}

	if r.queue == nil {
		r.logger.Warn("receiver offline and no push queue configured",
			zap.String("message", msg.ID), zap.String("receiver", msg.ReceiverID))
		return
	}
	err := task.EnqueuePushNotify(ctx, r.queue, task.PushNotifyPayload{
		ReceiverID:     msg.ReceiverID,
		SenderID:       msg.SenderID,
		Body:           msg.NotificationBody(),
		ConversationID: msg.ConversationID,
	})
	if err != nil {
		r.logger.Error("push dispatch failed",
			zap.String("message", msg.ID),
			zap.String("receiver", msg.ReceiverID),
			zap.Error(err))
	}
}

func (r *Relay) bumpLastMessage(conversationID, messageID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.conversations.SetLastMessage(ctx, conversationID, messageID); err != nil {
		r.logger.Warn("conversation metadata update failed",
			zap.String("conversation", conversationID),
			zap.String("message", messageID),
			zap.Error(err))
	}
}
