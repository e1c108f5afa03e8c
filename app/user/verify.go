package user

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"bitwise74/web-starter/internal"
	"bitwise74/web-starter/internal/auth"
	"bitwise74/web-starter/pkg/middleware"
	"bitwise74/web-starter/pkg/util"

	"github.com/gin-gonic/gin"
)

// VerifyEmail consumes the token of a verification link. With a local
// callbackURL the browser is redirected there, errors are passed along as
// ?error=CODE
func VerifyEmail(c *gin.Context, d *internal.Deps) {
	callback := c.Query("callbackURL")
	if !util.IsLocalPath(callback) {
		callback = ""
	}

	u, err := d.Auth.VerifyEmail(c.Request.Context(), c.Query("token"))
	if err != nil {
		var authErr *auth.Error
		if callback != "" && errors.As(err, &authErr) {
			c.Redirect(http.StatusSeeOther, withQuery(callback, "error", authErr.Code))
			return
		}

		respondError(c, err, "Failed to verify email")
		return
	}

	if sw, ok := middleware.CurrentSession(c); ok && sw.User.ID == u.ID {
		d.Sessions.SetCookies(c, &auth.SessionWithUser{Session: sw.Session, User: *u})
	}

	if callback != "" {
		c.Redirect(http.StatusSeeOther, callback)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": true,
		"user":   u,
	})
}

func withQuery(path, key, value string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}

	return path + sep + url.QueryEscape(key) + "=" + url.QueryEscape(value)
}

// SendVerificationEmail mails a new verification link to the current user
func SendVerificationEmail(c *gin.Context, d *internal.Deps) {
	sw, _ := middleware.CurrentSession(c)

	if err := d.Auth.SendVerificationEmail(c.Request.Context(), sw.User.ID); err != nil {
		respondError(c, err, "Failed to send verification email")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": true})
}
