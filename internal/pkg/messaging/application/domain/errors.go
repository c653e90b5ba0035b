package messaging

import "errors"

// Domain-level errors for messaging behaviors.
// Validation and authorization errors are terminal for the request that
// raised them; delivery errors are logged by callers and never propagated
// back to the sender once the message has been persisted.
var (
	ErrValidation     = errors.New("messaging: invalid request")
	ErrNotParticipant = errors.New("messaging: user is not a participant in the conversation")
	ErrNotFound       = errors.New("messaging: conversation not found")
	ErrSelfMessage    = errors.New("messaging: cannot send messages to yourself")
	ErrEmptyMessage   = errors.New("messaging: text message cannot be empty")
	ErrMissingMedia   = errors.New("messaging: media url required for this message type")
)
