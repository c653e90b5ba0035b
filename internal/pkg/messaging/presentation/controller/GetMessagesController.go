package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	messaging "github.com/KJsquare9/chat/internal/pkg/messaging/application/domain"
	"github.com/KJsquare9/chat/internal/pkg/messaging/application/usecase"
	"github.com/KJsquare9/chat/internal/pkg/messaging/events"
	"github.com/KJsquare9/chat/internal/pkg/messaging/persistence/repository/adapter"
)

// GetMessagesController serves paginated conversation history (one
// controller per endpoint).
type GetMessagesController struct {
	UC *usecase.GetMessagesUseCase
}

func NewGetMessagesController(pool *pgxpool.Pool) *GetMessagesController {
	uc := usecase.NewGetMessagesUseCase(
		adapter.NewPgConversationRepository(pool),
		adapter.NewPgMessageRepository(pool),
	)
	return &GetMessagesController{UC: uc}
}

func (h *GetMessagesController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID := c.Param("conversationId")
		userID := c.GetString("userID")

		page := 1
		limit := 20
		if v := c.Query("page"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				page = n
			}
		}
		if v := c.Query("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		out, err := h.UC.Execute(ctx, usecase.GetMessagesInput{
			ConversationID: conversationID,
			UserID:         userID,
			Page:           page,
			Limit:          limit,
		})
		if err != nil {
			status := http.StatusBadRequest
			switch {
			case errors.Is(err, messaging.ErrNotParticipant):
				status = http.StatusForbidden
			case errors.Is(err, messaging.ErrNotFound):
				status = http.StatusNotFound
			case errors.Is(err, usecase.ErrPersistence):
				status = http.StatusInternalServerError
			}
			c.JSON(status, gin.H{"success": false, "message": err.Error()})
			return
		}

		msgs := make([]events.MessagePayload, 0, len(out.Messages))
		for _, m := range out.Messages {
			msgs = append(msgs, events.NewMessagePayload(m, messaging.UserRef{ID: m.SenderID}))
		}

		c.JSON(http.StatusOK, gin.H{
			"success":       true,
			"messages":      msgs,
			"currentPage":   out.Page,
			"totalPages":    out.TotalPages,
			"totalMessages": out.TotalMessages,
		})
	}
}
