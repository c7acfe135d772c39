package stats

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/Rusal42/floofwebsite/internal"
	"github.com/Rusal42/floofwebsite/internal/metrics"
	"github.com/Rusal42/floofwebsite/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StatsUpdate merges the whitelisted fields of the body into the stats record.
// Authorization is done by the bot token middleware in front of it.
func StatsUpdate(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	body, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":     "Request body size exceeds limit",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})

		zap.L().Error("Can't read request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}

	patch, err := model.DecodePatch(body)
	if err != nil {
		metrics.StatsWrites.WithLabelValues("invalid").Inc()

		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid JSON",
			"requestID": requestID,
		})

		zap.L().Debug("Rejected stats update", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	rec := d.Stats.Write(c.Request.Context(), patch)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   rec,
	})
}
