package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// SessionValidator is the piece of the rotation engine the middleware
// needs: full access-token validation against the ledger and the session
// store, never against cached state.
type SessionValidator interface {
	ValidateSession(ctx context.Context, accessRaw string) (userID, sessionID int64, err error)
}

// RequireSession authenticates a request by its bearer access token and
// the liveness of the session behind it, then exposes user_id and
// session_id to downstream handlers.
func RequireSession(validator SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			abortUnauthorized(c, "AUTH_HEADER_MISSING", "Missing Authorization header")
			return
		}

		if !strings.HasPrefix(h, "Bearer ") {
			abortUnauthorized(c, "INVALID_AUTH_FORMAT", "Authorization header must be a bearer token")
			return
		}

		tokenStr := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		if tokenStr == "" {
			abortUnauthorized(c, "INVALID_AUTH_FORMAT", "Empty token")
			return
		}

		userID, sessionID, err := validator.ValidateSession(c.Request.Context(), tokenStr)
		if err != nil {
			abortUnauthorized(c, "INVALID_TOKEN", "Token is invalid or session is no longer active")
			return
		}

		c.Set("user_id", userID)
		c.Set("session_id", sessionID)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
