package root

import (
	"net/http"
	"time"

	"github.com/Rusal42/floofwebsite/internal"
	"github.com/Rusal42/floofwebsite/internal/model"
	"github.com/Rusal42/floofwebsite/pkg/util"

	"github.com/gin-gonic/gin"
)

type HealthServer struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Uptime      string `json:"uptime"`
	Environment string `json:"environment"`
}

// HealthShard is a fixed single entry for now, the bot reports as one instance
type HealthShard struct {
	ID        int       `json:"id"`
	Status    string    `json:"status"`
	Uptime    string    `json:"uptime"`
	LatencyMs float64   `json:"latencyMs"`
	Servers   int64     `json:"servers"`
	Users     int64     `json:"users"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type HealthReport struct {
	Success     bool              `json:"success"`
	Status      string            `json:"status"`
	Message     string            `json:"message"`
	Server      HealthServer      `json:"server"`
	Endpoints   map[string]string `json:"endpoints"`
	Shards      []HealthShard     `json:"shards"`
	Timestamp   time.Time         `json:"timestamp"`
	CuteMessage string            `json:"cute_message"`
}

// BuildHealth assembles the health envelope from a stats record
func BuildHealth(d *internal.Deps, rec model.StatsRecord, now time.Time) HealthReport {
	uptime := util.FormatUptime(util.UptimeSeconds(rec.Uptime, d.StartedAt, now))

	return HealthReport{
		Success: true,
		Status:  "healthy",
		Message: "🐾 " + d.Config.App.Name + " is purring along nicely!",
		Server: HealthServer{
			Name:        d.Config.App.Name,
			Version:     d.Config.App.Version,
			Uptime:      uptime,
			Environment: d.Config.App.Environment,
		},
		Endpoints: map[string]string{
			"stats":  "/api/stats",
			"auth":   "/api/auth/discord",
			"health": "/api/health",
		},
		Shards: []HealthShard{{
			ID:        0,
			Status:    "operational",
			Uptime:    uptime,
			LatencyMs: rec.Ping,
			Servers:   rec.ServerCount,
			Users:     rec.UserCount,
			UpdatedAt: rec.LastUpdated,
		}},
		Timestamp:   now.UTC(),
		CuteMessage: "✨ All systems floofy! ✨",
	}
}

// Health never fails, a cold start or a broken durable store still yields 200
func Health(c *gin.Context, d *internal.Deps) {
	rec := d.Stats.Read(c.Request.Context())

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, BuildHealth(d, rec, time.Now()))
}
