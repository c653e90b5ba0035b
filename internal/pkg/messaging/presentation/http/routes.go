package http

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/KJsquare9/chat/internal/infrastructure/auth"
	"github.com/KJsquare9/chat/internal/infrastructure/realtime"
	"github.com/KJsquare9/chat/internal/pkg/messaging/application/relay"
	"github.com/KJsquare9/chat/internal/pkg/messaging/presentation/controller"
)

// RegisterRoutes registers messaging endpoints under the given router group.
// It constructs per-endpoint controllers and binds them directly to routes.
func RegisterRoutes(g *gin.RouterGroup, pool *pgxpool.Pool, registry realtime.Registry, rly *relay.Relay, verifier *auth.Verifier, logger *zap.Logger) {
	socketCtl := controller.NewSocketController(registry, rly, verifier, logger)
	listCtl := controller.NewListConversationsController(pool)
	messagesCtl := controller.NewGetMessagesController(pool)
	pushTokenCtl := controller.NewUpdatePushTokenController(pool)
	notifSettingsCtl := controller.NewUpdateNotificationSettingsController(pool)

	// GET /api/v1/ws -> duplex messaging endpoint (token-authenticated)
	g.GET("/ws", socketCtl.Handle())

	authed := g.Group("")
	authed.Use(TokenAuthMiddleware(verifier))

	// GET /api/v1/conversations -> conversation list, most recent first
	authed.GET("/conversations", listCtl.Handle())

	// GET /api/v1/conversations/:conversationId/messages -> paginated history
	authed.GET("/conversations/:conversationId/messages", messagesCtl.Handle())

	// POST /api/v1/users/me/fcmToken -> update device registration token
	authed.POST("/users/me/fcmToken", pushTokenCtl.Handle())

	// PUT /api/v1/users/me/notificationSettings -> toggle push opt-in
	authed.PUT("/users/me/notificationSettings", notifSettingsCtl.Handle())
}
