package task

import (
	"context"
	"encoding/json"
	"time"

	qport "github.com/KJsquare9/chat/internal/infrastructure/queue/port"
	pushport "github.com/KJsquare9/chat/internal/pkg/messaging/push/port"
)

// PushNotifyTaskType is the queue task name for offline-recipient push
// dispatch.
const PushNotifyTaskType = "messaging:push_notify"

// PushNotifyPayload is the JSON payload transported via the queue. Kept
// decoupled from domain types to avoid coupling wire tags to the domain.
type PushNotifyPayload struct {
	ReceiverID     string `json:"receiverId"`
	SenderID       string `json:"senderId"`
	Body           string `json:"body"`
	ConversationID string `json:"conversationId"`
}

// EnqueuePushNotify hands the notification to the queue. The send path
// calls this instead of the gateway so it never waits on FCM.
func EnqueuePushNotify(ctx context.Context, client qport.Client, p PushNotifyPayload) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = client.Enqueue(ctx, qport.Task{Type: PushNotifyTaskType, Payload: b},
		qport.EnqueueOption{Queue: "push", MaxRetry: 5})
	return err
}

// RegisterPushNotifyTask binds the worker-side handler: decode the payload
// and invoke the push gateway. The gateway owns opt-in checks, token
// cleanup and error swallowing, so the handler only fails on a payload it
// cannot decode.
func RegisterPushNotifyTask(srv qport.Server, gateway pushport.Gateway) {
	srv.Register(PushNotifyTaskType, func(ctx context.Context, t qport.Task) error {
		var p PushNotifyPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		return gateway.Notify(ctx, p.ReceiverID, p.SenderID, p.Body, p.ConversationID)
	})
}
