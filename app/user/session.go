package user

import (
	"net/http"

	"bitwise74/web-starter/internal"
	"bitwise74/web-starter/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// GetSession returns the current session and user, or null without one
func GetSession(c *gin.Context) {
	sw, ok := middleware.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusOK, nil)
		return
	}

	c.JSON(http.StatusOK, sw)
}

func ListSessions(c *gin.Context, d *internal.Deps) {
	sw, _ := middleware.CurrentSession(c)

	sessions, err := d.Auth.ListSessions(c.Request.Context(), sw.User.ID)
	if err != nil {
		respondError(c, err, "Failed to list sessions")
		return
	}

	c.JSON(http.StatusOK, sessions)
}

type revokeBody struct {
	Token string `json:"token" form:"token" binding:"required"`
}

func RevokeSession(c *gin.Context, d *internal.Deps) {
	var data revokeBody
	if err := c.ShouldBind(&data); err != nil {
		badBody(c, err)
		return
	}

	sw, _ := middleware.CurrentSession(c)
	if err := d.Auth.RevokeSession(c.Request.Context(), sw.User.ID, data.Token); err != nil {
		respondError(c, err, "Failed to revoke session")
		return
	}

	if data.Token == sw.Session.Token {
		d.Sessions.ClearCookies(c)
	}

	c.JSON(http.StatusOK, gin.H{"status": true})
}

func RevokeOtherSessions(c *gin.Context, d *internal.Deps) {
	sw, _ := middleware.CurrentSession(c)

	if err := d.Auth.RevokeOtherSessions(c.Request.Context(), sw.User.ID, sw.Session.Token); err != nil {
		respondError(c, err, "Failed to revoke sessions")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": true})
}

// Ok is used by clients to check that the auth endpoints are reachable
func Ok(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
