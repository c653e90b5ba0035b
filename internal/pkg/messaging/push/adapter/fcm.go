package adapter

import (
	"context"
	"errors"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	fcm "firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	messaging "github.com/KJsquare9/chat/internal/pkg/messaging/application/domain"
	repository "github.com/KJsquare9/chat/internal/pkg/messaging/persistence/repository/port"
	"github.com/KJsquare9/chat/internal/pkg/messaging/push/port"
)

const maxBodyLen = 100

// truncateBody caps the notification body at maxBodyLen characters, not
// bytes, so multibyte text is never cut mid-rune.
func truncateBody(body string) string {
	r := []rune(body)
	if len(r) <= maxBodyLen {
		return body
	}
	return string(r[:maxBodyLen-3]) + "..."
}

// FCMGateway delivers push notifications through Firebase Cloud Messaging.
type FCMGateway struct {
	client *fcm.Client
	users  repository.UserRepository
	logger *zap.Logger
}

// NewFCMGatewayFromEnv initializes the Firebase app from the service
// account file named by FIREBASE_CREDENTIALS_FILE (or application-default
// credentials when unset).
func NewFCMGatewayFromEnv(ctx context.Context, users repository.UserRepository, logger *zap.Logger) (*FCMGateway, error) {
	var opts []option.ClientOption
	if path := os.Getenv("FIREBASE_CREDENTIALS_FILE"); path != "" {
		opts = append(opts, option.WithCredentialsFile(path))
	}
	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("fcm: init app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("fcm: init messaging client: %w", err)
	}
	return &FCMGateway{client: client, users: users, logger: logger}, nil
}

var _ port.Gateway = (*FCMGateway)(nil)

// Notify sends the new-message notification. Every failure path logs and
// returns nil: push delivery never bubbles back into the send path.
func (g *FCMGateway) Notify(ctx context.Context, receiverID, senderID, body, conversationID string) error {
	target, err := g.users.GetPushTarget(ctx, receiverID)
	if err != nil {
		if !errors.Is(err, messaging.ErrNotFound) {
			g.logger.Warn("push target lookup failed", zap.String("receiver", receiverID), zap.Error(err))
		}
		return nil
	}
	if target.FCMToken == "" || !target.AllowNotifications {
		g.logger.Debug("push skipped: no token or notifications disabled",
			zap.String("receiver", receiverID))
		return nil
	}

	senderName := "Someone"
	if ref, err := g.users.GetRef(ctx, senderID); err == nil && ref.FullName != "" {
		senderName = ref.FullName
	}

	body = truncateBody(body)

	badge := 1
	msg := &fcm.Message{
		Token: target.FCMToken,
		Notification: &fcm.Notification{
			Title: fmt.Sprintf("New message from %s", senderName),
			Body:  body,
		},
		Data: map[string]string{
			"type":           "newMessage",
			"conversationId": conversationID,
			"senderId":       senderID,
			"senderName":     senderName,
		},
		Android: &fcm.AndroidConfig{
			Priority: "high",
			Notification: &fcm.AndroidNotification{
				Sound:     "default",
				ChannelID: "new_messages_channel",
			},
		},
		APNS: &fcm.APNSConfig{
			Payload: &fcm.APNSPayload{
				Aps: &fcm.Aps{
					Sound:            "default",
					Badge:            &badge,
					ContentAvailable: true,
				},
			},
		},
	}

	if _, err := g.client.Send(ctx, msg); err != nil {
		if fcm.IsRegistrationTokenNotRegistered(err) {
			// Token is permanently dead; drop it so we stop trying.
			if clearErr := g.users.ClearPushToken(ctx, receiverID); clearErr != nil {
				g.logger.Warn("failed to clear dead push token",
					zap.String("receiver", receiverID), zap.Error(clearErr))
			}
			return nil
		}
		g.logger.Warn("push send failed", zap.String("receiver", receiverID), zap.Error(err))
	}
	return nil
}
