package user

import (
	"net/http"

	"bitwise74/web-starter/internal"
	"bitwise74/web-starter/internal/auth"
	"bitwise74/web-starter/internal/metrics"

	"github.com/gin-gonic/gin"
)

type signInBody struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func SignInEmail(c *gin.Context, d *internal.Deps) {
	var data signInBody
	if err := c.ShouldBind(&data); err != nil {
		badBody(c, err)
		return
	}

	sw, err := d.Auth.SignInEmail(c.Request.Context(), auth.SignInInput{
		Email:     data.Email,
		Password:  data.Password,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	metrics.RecordAuth("sign_in", err)
	if err != nil {
		respondError(c, err, "Failed to sign in")
		return
	}

	d.Sessions.SetCookies(c, sw)
	c.JSON(http.StatusOK, gin.H{
		"token": sw.Session.Token,
		"user":  sw.User,
	})
}

// SignOut ends the current session. Requests without one succeed as well
func SignOut(c *gin.Context, d *internal.Deps) {
	token, _ := d.Sessions.Token(c)

	err := d.Auth.SignOut(c.Request.Context(), token)
	metrics.RecordAuth("sign_out", err)
	if err != nil {
		respondError(c, err, "Failed to sign out")
		return
	}

	d.Sessions.ClearCookies(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}
