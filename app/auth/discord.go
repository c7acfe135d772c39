package auth

import (
	"errors"
	"net/http"

	"github.com/Rusal42/floofwebsite/internal"
	"github.com/Rusal42/floofwebsite/internal/discord"
	"github.com/Rusal42/floofwebsite/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type discordLoginBody struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
}

// DiscordLogin finishes the OAuth2 flow started by the website's login button
// and hands back a session token.
func DiscordLogin(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data discordLoginBody
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success":   false,
			"error":     "Invalid request body",
			"requestID": requestID,
		})

		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if data.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success":   false,
			"error":     "No authorization code provided",
			"requestID": requestID,
		})
		return
	}

	profile, err := d.Identity.Login(c.Request.Context(), data.Code, data.RedirectURI)
	if err != nil {
		status, msg := http.StatusInternalServerError, "Internal server error"

		switch {
		case errors.Is(err, discord.ErrTokenExchange):
			status, msg = http.StatusBadRequest, "Failed to exchange code for token"
		case errors.Is(err, discord.ErrUserFetch):
			status, msg = http.StatusBadRequest, "Failed to fetch user data"
		}

		c.JSON(status, gin.H{
			"success":   false,
			"error":     msg,
			"requestID": requestID,
		})

		zap.L().Error("Discord login failed", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	u := profile.User

	token, err := security.IssueSession(d.Config.JWT.Secret, d.Config.JWT.TTL, security.SessionClaims{
		UserID:        u.ID,
		Username:      u.Username,
		Discriminator: u.Discriminator,
		Avatar:        u.Avatar,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to generate session token", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.Set("userID", u.ID)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"user": gin.H{
			"id":            u.ID,
			"username":      u.Username,
			"discriminator": u.Discriminator,
			"avatar":        u.Avatar,
			"guilds":        discord.AdminGuilds(profile.Guilds),
		},
	})
}
