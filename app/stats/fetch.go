package stats

import (
	"net/http"

	"github.com/Rusal42/floofwebsite/internal"

	"github.com/gin-gonic/gin"
)

// StatsFetch always answers 200. Cold-start placeholder data looks the same
// as real data to the caller.
func StatsFetch(c *gin.Context, d *internal.Deps) {
	rec := d.Stats.Read(c.Request.Context())

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, rec)
}
