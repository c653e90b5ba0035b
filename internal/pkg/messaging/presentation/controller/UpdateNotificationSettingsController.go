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

// UpdateNotificationSettingsController toggles the push opt-in flag the
// push gateway consults before sending (one controller per endpoint).
type UpdateNotificationSettingsController struct {
	Users repository.UserRepository
}

func NewUpdateNotificationSettingsController(pool *pgxpool.Pool) *UpdateNotificationSettingsController {
	return &UpdateNotificationSettingsController{Users: adapter.NewPgUserRepository(pool)}
}

type updateNotificationSettingsRequest struct {
	AllowNotifications *bool `json:"allowNotifications" binding:"required"`
}

func (h *UpdateNotificationSettingsController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("userID")

		var req updateNotificationSettingsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "allowNotifications is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if err := h.Users.SetAllowNotifications(ctx, userID, *req.AllowNotifications); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, messaging.ErrNotFound) {
				status = http.StatusNotFound
			}
			c.JSON(status, gin.H{"success": false, "message": "failed to update notification settings"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "message": "notification settings updated successfully"})
	}
}
