package root

import (
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

// Static serves the frontend from dir with an index.html fallback for client
// side routes. Without a dir every unknown route is a 404.
func Static(dir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if dir == "" || (c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
			c.JSON(http.StatusNotFound, gin.H{
				"success":   false,
				"error":     "Not found",
				"requestID": c.GetString("requestID"),
			})
			return
		}

		p := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+c.Request.URL.Path)))
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			c.File(p)
			return
		}

		c.File(filepath.Join(dir, "index.html"))
	}
}
