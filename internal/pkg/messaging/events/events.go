// Package events defines the tagged frames exchanged over the duplex
// connection. Every payload is an explicit variant validated at the
// boundary; field presence is never inferred from loose maps.
package events

import (
	"encoding/json"
	"time"

	messaging "github.com/KJsquare9/chat/internal/pkg/messaging/application/domain"
)

// Inbound event names.
const (
	TypeSendMessage = "sendMessage"
	TypeTyping      = "typing"
	TypeStopTyping  = "stopTyping"
	TypeMarkAsRead  = "markAsRead"
)

// Outbound event names.
const (
	TypeConnected         = "connected"
	TypeMessageSent       = "messageSent"
	TypeSendMessageError  = "sendMessageError"
	TypeReceiveMessage    = "receiveMessage"
	TypeMessagesRead      = "messagesRead"
	TypeMarkAsReadSuccess = "markAsReadSuccess"
	TypeMarkAsReadError   = "markAsReadError"
)

// Inbound is the single frame shape read off the socket; Event selects the
// variant and the handler validates the fields that variant requires.
type Inbound struct {
	Event          string  `json:"event"`
	ConversationID string  `json:"conversationId,omitempty"`
	ReceiverID     string  `json:"receiverId,omitempty"`
	Type           string  `json:"type,omitempty"`
	Text           *string `json:"text,omitempty"`
	MediaURL       *string `json:"mediaUrl,omitempty"`
	TempID         string  `json:"tempId,omitempty"`
}

// MessagePayload is the fully-populated message event body, including the
// small sender-identity projection.
type MessagePayload struct {
	ID             string            `json:"id"`
	ConversationID string            `json:"conversationId"`
	SenderID       string            `json:"senderId"`
	ReceiverID     string            `json:"receiverId"`
	Type           string            `json:"type"`
	Text           *string           `json:"text,omitempty"`
	MediaURL       *string           `json:"mediaUrl,omitempty"`
	Timestamp      time.Time         `json:"timestamp"`
	Status         string            `json:"status"`
	Sender         messaging.UserRef `json:"sender"`
}

// NewMessagePayload projects a domain message plus sender ref onto the wire.
func NewMessagePayload(m messaging.Message, sender messaging.UserRef) MessagePayload {
	return MessagePayload{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		Type:           string(m.Type),
		Text:           m.Text,
		MediaURL:       m.MediaURL,
		Timestamp:      m.Timestamp,
		Status:         string(m.Status),
		Sender:         sender,
	}
}

type Connected struct {
	Event  string `json:"event"`
	UserID string `json:"userId"`
}

type MessageSent struct {
	Event   string         `json:"event"`
	TempID  string         `json:"tempId,omitempty"`
	Message MessagePayload `json:"message"`
}

type SendMessageError struct {
	Event  string `json:"event"`
	TempID string `json:"tempId,omitempty"`
	Error  string `json:"error"`
}

type ReceiveMessage struct {
	Event   string         `json:"event"`
	Message MessagePayload `json:"message"`
}

// TypingSignal carries both typing and stopTyping, distinguished by Event.
type TypingSignal struct {
	Event          string `json:"event"`
	ConversationID string `json:"conversationId"`
	SenderID       string `json:"senderId"`
}

type MessagesRead struct {
	Event          string `json:"event"`
	ConversationID string `json:"conversationId"`
	ReaderID       string `json:"readerId"`
}

type MarkAsReadSuccess struct {
	Event          string `json:"event"`
	ConversationID string `json:"conversationId"`
}

type MarkAsReadError struct {
	Event          string `json:"event"`
	ConversationID string `json:"conversationId"`
	Error          string `json:"error"`
}

// Marshal encodes a frame, panicking on the impossible case of one of the
// static shapes above failing to encode.
func Marshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic("events: marshal: " + err.Error())
	}
	return b
}
