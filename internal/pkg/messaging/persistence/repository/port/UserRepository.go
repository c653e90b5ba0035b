package repository

import (
	"context"

	messaging "github.com/KJsquare9/chat/internal/pkg/messaging/application/domain"
)

// UserRepository covers the slices of the user record this core touches:
// the identity projection for outbound events and the push-registration
// state consulted by the push gateway.
type UserRepository interface {
	// GetRef fetches the id + display-name projection, or
	// messaging.ErrNotFound.
	GetRef(ctx context.Context, userID string) (*messaging.UserRef, error)

	// GetPushTarget fetches the user's device token and opt-in flag, or
	// messaging.ErrNotFound.
	GetPushTarget(ctx context.Context, userID string) (*messaging.PushTarget, error)

	// SetPushToken stores a fresh device-registration token.
	SetPushToken(ctx context.Context, userID, token string) error

	// ClearPushToken removes a permanently-invalid token.
	ClearPushToken(ctx context.Context, userID string) error

	// SetAllowNotifications flips the notification opt-in flag.
	SetAllowNotifications(ctx context.Context, userID string, allow bool) error
}
