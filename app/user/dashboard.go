package user

import (
	"net/http"

	"github.com/Rusal42/floofwebsite/pkg/security"

	"github.com/gin-gonic/gin"
)

// Dashboard returns the logged in user's dashboard. Only the session claims
// are known for now, the remaining sections are empty placeholders.
func Dashboard(c *gin.Context) {
	claims := c.MustGet("session").(*security.SessionClaims)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"user":           claims,
			"servers":        []any{},
			"settings":       gin.H{},
			"recentActivity": []any{},
		},
	})
}
