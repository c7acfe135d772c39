package root

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/Rusal42/floofwebsite/internal"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates holds the server rendered pages, installed on the router with
// SetHTMLTemplate
var Templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// HealthPage renders the health envelope for humans
func HealthPage(c *gin.Context, d *internal.Deps) {
	rec := d.Stats.Read(c.Request.Context())
	now := time.Now()

	c.HTML(http.StatusOK, "health.html", gin.H{
		"Report":    BuildHealth(d, rec, now),
		"CheckedAt": now.UTC().Format(time.RFC1123),
	})
}
