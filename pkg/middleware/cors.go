package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// NewOpenCORSMiddleware stamps "Access-Control-Allow-Origin: *" on every
// response and answers OPTIONS requests without an Origin header, which the
// cors middleware behind it leaves alone.
func NewOpenCORSMiddleware(methods, headers []string) gin.HandlerFunc {
	allowMethods := strings.Join(methods, ", ")
	allowHeaders := strings.Join(headers, ", ")

	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")

		if c.Request.Method == http.MethodOptions && c.GetHeader("Origin") == "" {
			c.Header("Access-Control-Allow-Methods", allowMethods)
			c.Header("Access-Control-Allow-Headers", allowHeaders)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
