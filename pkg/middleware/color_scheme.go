package middleware

import (
	"bitwise74/web-starter/internal/colorscheme"

	"github.com/gin-gonic/gin"
)

// NewColorSchemeMiddleware reads the color scheme cookie once and stores
// the result as colorScheme
func NewColorSchemeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("colorScheme", colorscheme.FromRequest(c.Request))
		c.Next()
	}
}

// ColorScheme returns the scheme stored by NewColorSchemeMiddleware, falling
// back to reading the cookie directly
func ColorScheme(c *gin.Context) colorscheme.ColorScheme {
	if v, ok := c.Get("colorScheme"); ok {
		if cs, ok := v.(colorscheme.ColorScheme); ok {
			return cs
		}
	}

	return colorscheme.FromRequest(c.Request)
}
