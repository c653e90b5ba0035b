package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	messaging "github.com/KJsquare9/chat/internal/pkg/messaging/application/domain"
	"github.com/KJsquare9/chat/internal/pkg/messaging/persistence/repository/adapter"
	repository "github.com/KJsquare9/chat/internal/pkg/messaging/persistence/repository/port"
)

// UpdatePushTokenController stores a fresh device-registration token for
// the authenticated user (one controller per endpoint).
type UpdatePushTokenController struct {
	Users repository.UserRepository
}

func NewUpdatePushTokenController(pool *pgxpool.Pool) *UpdatePushTokenController {
	return &UpdatePushTokenController{Users: adapter.NewPgUserRepository(pool)}
}

type updatePushTokenRequest struct {
	FCMToken string `json:"fcmToken" binding:"required"`
}

func (h *UpdatePushTokenController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("userID")

		var req updatePushTokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "FCM token is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if err := h.Users.SetPushToken(ctx, userID, req.FCMToken); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, messaging.ErrNotFound) {
				status = http.StatusNotFound
			}
			c.JSON(status, gin.H{"success": false, "message": "failed to update FCM token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "message": "FCM token updated successfully"})
	}
}
