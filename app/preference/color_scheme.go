// Package preference holds handlers for display preferences
package preference

import (
	"net/http"

	"bitwise74/web-starter/internal"
	"bitwise74/web-starter/internal/colorscheme"
	"bitwise74/web-starter/pkg/util"

	"github.com/gin-gonic/gin"
)

// SetColorScheme stores the colorScheme form field in the color scheme
// cookie. Anything that isn't a known scheme stores system. Forms posted
// without JavaScript pass redirectTo and are sent back to that page
func SetColorScheme(c *gin.Context, d *internal.Deps) {
	cs := colorscheme.Parse(c.PostForm("colorScheme"))
	http.SetCookie(c.Writer, colorscheme.Cookie(cs, d.SecureCookies))

	if to := c.PostForm("redirectTo"); util.IsLocalPath(to) {
		c.Redirect(http.StatusSeeOther, to)
		return
	}

	c.JSON(http.StatusOK, gin.H{"colorScheme": cs})
}
