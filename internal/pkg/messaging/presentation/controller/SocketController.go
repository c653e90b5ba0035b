package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/KJsquare9/chat/internal/infrastructure/auth"
	"github.com/KJsquare9/chat/internal/infrastructure/realtime"
	messaging "github.com/KJsquare9/chat/internal/pkg/messaging/application/domain"
	"github.com/KJsquare9/chat/internal/pkg/messaging/application/relay"
	"github.com/KJsquare9/chat/internal/pkg/messaging/events"
)

const (
	defaultReadTimeout = 60 * time.Second
	inflightTimeout    = 5 * time.Second
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin restriction is handled by the CORS layer in front.
		return true
	},
}

// SocketController owns the duplex endpoint: it authenticates the connect,
// registers the session, and pumps inbound frames into the relay.
type SocketController struct {
	registry realtime.Registry
	relay    *relay.Relay
	verifier *auth.Verifier
	logger   *zap.Logger
}

func NewSocketController(registry realtime.Registry, rly *relay.Relay, verifier *auth.Verifier, logger *zap.Logger) *SocketController {
	return &SocketController{registry: registry, relay: rly, verifier: verifier, logger: logger}
}

// Handle upgrades the HTTP connection and processes frames until the client
// disconnects. The token binds the connection to a single user identity for
// its whole lifetime.
func (ctl *SocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := ctl.verifier.UserID(c.Query("token"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing token"})
			return
		}

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response; nothing left to do.
			return
		}

		conn := realtime.NewConnection(userID, ws)
		conn.Start()
		ctl.registry.Register(userID, conn)
		ctl.logger.Info("user connected", zap.String("user", userID), zap.String("session", conn.ID))

		defer func() {
			// Unregister first: a closing connection must stop influencing
			// routing immediately, while in-flight tasks keep running.
			ctl.registry.Unregister(userID, conn)
			conn.Close(websocket.CloseNormalClosure, "session closed")
			ctl.logger.Info("user disconnected", zap.String("user", userID), zap.String("session", conn.ID))
		}()

		ws.SetReadLimit(1 << 20) // 1MB payload cap
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		_ = conn.Send(events.Marshal(events.Connected{Event: events.TypeConnected, UserID: userID}))

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) &&
					!errors.Is(err, websocket.ErrCloseSent) {
					ctl.logger.Debug("read error", zap.String("user", userID), zap.Error(err))
				}
				return
			}

			var frame events.Inbound
			if err := json.Unmarshal(data, &frame); err != nil {
				ctl.logger.Debug("invalid frame", zap.String("user", userID))
				continue
			}

			// Each frame runs as its own task: a slow send must not stall
			// typing or read receipts queued behind it on the same
			// connection. The frame is a value copy, so handlers race on
			// nothing but the relay, which is concurrency-safe.
			switch frame.Event {
			case events.TypeSendMessage:
				go ctl.handleSend(conn, userID, frame)
			case events.TypeTyping, events.TypeStopTyping:
				go ctl.handleTyping(userID, frame)
			case events.TypeMarkAsRead:
				go ctl.handleMarkAsRead(conn, userID, frame)
			default:
				ctl.logger.Debug("unknown event", zap.String("event", frame.Event))
			}
		}
	}
}

// handleSend runs the send path. The context derives from Background, not
// the request: a connection closing mid-send must not cancel persistence.
func (ctl *SocketController) handleSend(conn *realtime.Connection, userID string, frame events.Inbound) {
	ctx, cancel := context.WithTimeout(context.Background(), inflightTimeout)
	defer cancel()

	res, err := ctl.relay.SendMessage(ctx, relay.SendInput{
		SenderID:       userID,
		ReceiverID:     frame.ReceiverID,
		ConversationID: frame.ConversationID,
		Type:           messaging.MessageType(frame.Type),
		Text:           frame.Text,
		MediaURL:       frame.MediaURL,
	})
	if err != nil {
		_ = conn.Send(events.Marshal(events.SendMessageError{
			Event:  events.TypeSendMessageError,
			TempID: frame.TempID,
			Error:  sendErrorReason(err),
		}))
		return
	}

	_ = conn.Send(events.Marshal(events.MessageSent{
		Event:   events.TypeMessageSent,
		TempID:  frame.TempID,
		Message: events.NewMessagePayload(res.Message, res.Sender),
	}))
}

func (ctl *SocketController) handleTyping(userID string, frame events.Inbound) {
	ctx, cancel := context.WithTimeout(context.Background(), inflightTimeout)
	defer cancel()

	in := relay.TypingInput{
		SenderID:       userID,
		ConversationID: frame.ConversationID,
		ReceiverID:     frame.ReceiverID,
	}
	if frame.Event == events.TypeTyping {
		ctl.relay.Typing(ctx, in)
	} else {
		ctl.relay.StopTyping(ctx, in)
	}
}

func (ctl *SocketController) handleMarkAsRead(conn *realtime.Connection, userID string, frame events.Inbound) {
	ctx, cancel := context.WithTimeout(context.Background(), inflightTimeout)
	defer cancel()

	_, err := ctl.relay.MarkAsRead(ctx, relay.MarkAsReadInput{
		ReaderID:       userID,
		ConversationID: frame.ConversationID,
	})
	if err != nil {
		_ = conn.Send(events.Marshal(events.MarkAsReadError{
			Event:          events.TypeMarkAsReadError,
			ConversationID: frame.ConversationID,
			Error:          readErrorReason(err),
		}))
		return
	}

	_ = conn.Send(events.Marshal(events.MarkAsReadSuccess{
		Event:          events.TypeMarkAsReadSuccess,
		ConversationID: frame.ConversationID,
	}))
}

func sendErrorReason(err error) string {
	switch {
	case errors.Is(err, messaging.ErrSelfMessage):
		return "Cannot send messages to yourself."
	case errors.Is(err, messaging.ErrEmptyMessage):
		return "Text message cannot be empty."
	case errors.Is(err, messaging.ErrMissingMedia):
		return "Media URL required for this message type."
	case errors.Is(err, messaging.ErrNotParticipant):
		return "You are not part of this conversation."
	case errors.Is(err, messaging.ErrNotFound):
		return "Conversation not found."
	case errors.Is(err, messaging.ErrValidation):
		return "Invalid message."
	default:
		return "Server failed to send message."
	}
}

func readErrorReason(err error) string {
	switch {
	case errors.Is(err, messaging.ErrNotParticipant), errors.Is(err, messaging.ErrNotFound):
		return "Conversation not found or access denied."
	case errors.Is(err, messaging.ErrValidation):
		return "Invalid conversation ID."
	default:
		return "Server error processing request."
	}
}
