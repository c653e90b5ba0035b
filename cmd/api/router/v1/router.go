package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/KJsquare9/chat/internal/infrastructure/auth"
	"github.com/KJsquare9/chat/internal/infrastructure/realtime"
	"github.com/KJsquare9/chat/internal/pkg/messaging/application/relay"
	httpHandler "github.com/KJsquare9/chat/internal/pkg/messaging/presentation/http"
)

// RegisterRoutes mounts all version 1 API routes under /api/v1.
func RegisterRoutes(r *gin.Engine, pool *pgxpool.Pool, registry realtime.Registry, rly *relay.Relay, verifier *auth.Verifier, logger *zap.Logger) {
	v1 := r.Group("/api/v1")
	httpHandler.RegisterRoutes(v1, pool, registry, rly, verifier, logger)
}
