package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	messaging "github.com/KJsquare9/chat/internal/pkg/messaging/application/domain"
	"github.com/KJsquare9/chat/internal/pkg/messaging/application/usecase"
	"github.com/KJsquare9/chat/internal/pkg/messaging/events"
	"github.com/KJsquare9/chat/internal/pkg/messaging/persistence/repository/adapter"
)

// ListConversationsController serves the conversation list sorted by most
// recent activity (one controller per endpoint).
type ListConversationsController struct {
	UC *usecase.ListConversationsUseCase
}

func NewListConversationsController(pool *pgxpool.Pool) *ListConversationsController {
	uc := usecase.NewListConversationsUseCase(adapter.NewPgConversationRepository(pool))
	return &ListConversationsController{UC: uc}
}

func (h *ListConversationsController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("userID")

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		summaries, err := h.UC.Execute(ctx, usecase.ListConversationsInput{UserID: userID})
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, usecase.ErrPersistence) {
				status = http.StatusInternalServerError
			}
			c.JSON(status, gin.H{"success": false, "message": err.Error()})
			return
		}

		out := make([]gin.H, 0, len(summaries))
		for _, s := range summaries {
			item := gin.H{
				"id":          s.Conversation.ID,
				"participant": s.Other,
				"updatedAt":   s.Conversation.UpdatedAt,
			}
			if s.LastMessage != nil {
				item["lastMessage"] = events.NewMessagePayload(*s.LastMessage, messaging.UserRef{ID: s.LastMessage.SenderID})
			}
			out = append(out, item)
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "conversations": out})
	}
}
