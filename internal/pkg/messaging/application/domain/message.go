package messaging

import (
	"fmt"
	"strings"
	"time"
)

// MessageType describes the content carried by a message.
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeVideo MessageType = "video"
	MessageTypeFile  MessageType = "file"
)

// Valid reports whether t is one of the supported message types.
func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeVideo, MessageTypeFile:
		return true
	}
	return false
}

// IsMedia reports whether the type requires a media URL instead of text.
func (t MessageType) IsMedia() bool {
	return t == MessageTypeImage || t == MessageTypeVideo || t == MessageTypeFile
}

// MessageStatus is the delivery state of a message. Transitions are
// monotonic: sent -> read, never back.
type MessageStatus string

const (
	MessageStatusSent MessageStatus = "sent"
	MessageStatusRead MessageStatus = "read"
)

// Message is an immutable log entry in a conversation. Exactly one of
// Text/MediaURL is populated, matching Type. Only Status mutates after
// creation.
type Message struct {
	ID             string        `db:"id"`
	ConversationID string        `db:"conversation_id"`
	SenderID       string        `db:"sender_id"`
	ReceiverID     string        `db:"receiver_id"`
	Type           MessageType   `db:"msg_type"`
	Text           *string       `db:"body"`
	MediaURL       *string       `db:"media_url"`
	Timestamp      time.Time     `db:"created_at"`
	Status         MessageStatus `db:"status"`
}

// NewMessage validates and normalizes a message before persistence.
// Text is trimmed; a text message with nothing left after trimming is
// rejected, as is a media message without a URL. The conversation id is
// resolved by the caller, so only sender/receiver identity is required here.
func NewMessage(m Message) (*Message, error) {
	if m.SenderID == "" || m.ReceiverID == "" {
		return nil, fmt.Errorf("%w: sender and receiver ids are required", ErrValidation)
	}
	if m.SenderID == m.ReceiverID {
		return nil, ErrSelfMessage
	}
	if !m.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown message type %q", ErrValidation, m.Type)
	}

	switch {
	case m.Type == MessageTypeText:
		if m.Text == nil {
			return nil, ErrEmptyMessage
		}
		trimmed := strings.TrimSpace(*m.Text)
		if trimmed == "" {
			return nil, ErrEmptyMessage
		}
		m.Text = &trimmed
		m.MediaURL = nil
	case m.Type.IsMedia():
		if m.MediaURL == nil || strings.TrimSpace(*m.MediaURL) == "" {
			return nil, ErrMissingMedia
		}
		m.Text = nil
	}

	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	m.Status = MessageStatusSent

	return &m, nil
}

// NotificationBody is the push body for this message: the text verbatim for
// text messages, a synthesized description otherwise. Never empty.
func (m *Message) NotificationBody() string {
	if m.Type == MessageTypeText && m.Text != nil {
		return *m.Text
	}
	return fmt.Sprintf("Sent you a %s", m.Type)
}
