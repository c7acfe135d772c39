package middleware

import (
	"net/http"
	"strings"

	"github.com/Rusal42/floofwebsite/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewJWTMiddleware guards routes with the session token issued at login. The
// token comes from "Authorization: Bearer <token>" and its claims are stored
// as session, the Discord user ID as userID.
func NewJWTMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetString("requestID")

		header := c.GetHeader("Authorization")
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(tokenStr) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success":   false,
				"error":     "No token provided",
				"requestID": requestID,
			})
			return
		}

		claims, err := security.ParseSession(secret, strings.TrimSpace(tokenStr))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success":   false,
				"error":     "Invalid token",
				"requestID": requestID,
			})

			zap.L().Debug("Failed to parse session token", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		c.Set("session", claims)
		c.Set("userID", claims.UserID)
		c.Next()
	}
}
