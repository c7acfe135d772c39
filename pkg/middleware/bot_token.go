package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

const BotTokenHeader = "x-bot-token"

// NewBotTokenMiddleware authorizes stats writes from the bot. With an empty
// token the route is open to anyone, unless require is set, in which case
// nothing gets through.
func NewBotTokenMiddleware(token string, require bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" && !require {
			c.Next()
			return
		}

		got := c.GetHeader(BotTokenHeader)
		if token == "" || got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success":   false,
				"error":     "Unauthorized",
				"requestID": c.GetString("requestID"),
			})
			return
		}

		c.Next()
	}
}
