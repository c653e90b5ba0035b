package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/KJsquare9/chat/internal/infrastructure/auth"
)

// TokenAuthMiddleware verifies the bearer token and stores the bound user
// identity in the request context for downstream controllers.
func TokenAuthMiddleware(verifier *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if after, ok := strings.CutPrefix(token, "Bearer "); ok {
			token = after
		}

		userID, err := verifier.UserID(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "invalid or missing token",
			})
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}
