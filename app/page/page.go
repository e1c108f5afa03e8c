// Package page renders the HTML pages of the site
package page

import (
	"bitwise74/web-starter/internal"
	"bitwise74/web-starter/internal/colorscheme"
	"bitwise74/web-starter/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// data returns the values every template expects. title is prefixed to the
// app name unless empty
func data(c *gin.Context, d *internal.Deps, title string) gin.H {
	if title != "" {
		title += " — " + d.AppName
	} else {
		title = d.AppName
	}

	h := gin.H{
		"Title":        title,
		"Description":  "",
		"AppName":      d.AppName,
		"ColorScheme":  middleware.ColorScheme(c),
		"ColorSchemes": colorscheme.All,
		"Path":         c.Request.URL.RequestURI(),
		"User":         nil,
	}

	if sw, ok := middleware.CurrentSession(c); ok {
		h["User"] = sw.User
	}

	return h
}
