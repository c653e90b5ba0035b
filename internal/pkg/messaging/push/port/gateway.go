package port

import "context"

// Gateway is the push-notification sink used when a recipient has no live
// session. Delivery is best-effort: implementations look up the receiver's
// registration token and opt-in flag, treat their absence as a silent
// no-op, and log-and-swallow transport failures. A permanently invalid
// token is cleared from the user record by the implementation; callers
// never learn about any of it.
type Gateway interface {
	Notify(ctx context.Context, receiverID, senderID, body, conversationID string) error
}
