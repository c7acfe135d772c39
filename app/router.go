package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/Rusal42/floofwebsite/app/auth"
	"github.com/Rusal42/floofwebsite/app/root"
	"github.com/Rusal42/floofwebsite/app/stats"
	"github.com/Rusal42/floofwebsite/app/user"
	"github.com/Rusal42/floofwebsite/internal"
	"github.com/Rusal42/floofwebsite/internal/metrics"
	"github.com/Rusal42/floofwebsite/pkg/middleware"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const maxBodySize = 1 << 20

// NewRouter wires every route to the handlers. It does no I/O, everything it
// needs comes in through d.
func NewRouter(d *internal.Deps) *gin.Engine {
	router := gin.New()
	pages := persist.NewMemoryStore(time.Minute)

	methods := []string{"GET", "POST", "OPTIONS"}
	headers := []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.BotTokenHeader}

	router.Use(
		middleware.NewOpenCORSMiddleware(methods, headers),
		cors.New(cors.Config{
			AllowAllOrigins: true,
			AllowMethods:    methods,
			AllowHeaders:    headers,
			ExposeHeaders:   []string{"Content-Length", middleware.RequestIDHeader},
			MaxAge:          12 * time.Hour,
		}),
		middleware.NewRequestIDMiddleware(),
		gin.CustomRecovery(recovered),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == http.MethodHead
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	router.SetHTMLTemplate(root.Templates)

	botToken := middleware.NewBotTokenMiddleware(d.Config.Bot.APIToken, d.Config.Bot.RequireToken)
	jwt := middleware.NewJWTMiddleware(d.Config.JWT.Secret)
	body := middleware.BodySizeLimiter(maxBodySize)

	m := router.Group("/api")
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		m.HEAD("/heartbeat", root.Heartbeat)

		// GET /api/health		-> Service and bot health envelope
		m.GET("/health", func(c *gin.Context) { root.Health(c, d) })

		// GET /api/stats		-> Current bot stats
		m.GET("/stats", func(c *gin.Context) { stats.StatsFetch(c, d) })

		// POST /api/stats		-> Bot stats update, same as /api/update-stats
		m.POST("/stats", body, botToken, func(c *gin.Context) { stats.StatsUpdate(c, d) })

		// POST /api/update-stats	-> Bot stats update
		m.POST("/update-stats", body, botToken, func(c *gin.Context) { stats.StatsUpdate(c, d) })

		// POST /api/auth/discord	-> Exchanges a Discord OAuth2 code for a session token
		m.POST("/auth/discord", body, func(c *gin.Context) { auth.DiscordLogin(c, d) })

		// GET /api/user/dashboard	-> Dashboard data of the logged in user
		m.GET("/user/dashboard", jwt, user.Dashboard)
	}

	// GET /health			-> Human readable status page
	router.GET("/health", cache.CacheByRequestURI(pages, 30*time.Second), func(c *gin.Context) { root.HealthPage(c, d) })

	if d.Config.Metrics.Enabled {
		// GET /metrics		-> Prometheus metrics
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"success":   false,
			"error":     "Method not allowed",
			"requestID": c.GetString("requestID"),
		})
	})

	static := root.Static(d.Config.Host.StaticDir)
	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") || c.Request.URL.Path == "/api" {
			c.JSON(http.StatusNotFound, gin.H{
				"success":   false,
				"error":     "API endpoint not found",
				"requestID": c.GetString("requestID"),
			})
			return
		}

		static(c)
	})

	return router
}

func recovered(c *gin.Context, err any) {
	zap.L().Error("Recovered from panic",
		zap.Any("panic", err),
		zap.String("requestID", c.GetString("requestID")),
		zap.String("path", c.Request.URL.Path),
	)

	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"success":   false,
		"error":     "Internal server error",
		"requestID": c.GetString("requestID"),
	})
}
