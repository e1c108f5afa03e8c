package page

import (
	"net/http"
	"strings"

	"bitwise74/web-starter/internal"

	"github.com/gin-gonic/gin"
)

// NotFound renders the 404 page for pages and a JSON error for API routes
func NotFound(c *gin.Context, d *internal.Deps) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "Not found",
			"requestID": c.GetString("requestID"),
		})
		return
	}

	h := data(c, d, "404")
	h["Message"] = "404"
	h["Details"] = "The requested page could not be found."

	c.HTML(http.StatusNotFound, "error.html", h)
}
