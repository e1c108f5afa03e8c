package user

import (
	"net/http"

	"bitwise74/web-starter/internal"
	"bitwise74/web-starter/internal/auth"
	"bitwise74/web-starter/internal/metrics"

	"github.com/gin-gonic/gin"
)

type signUpBody struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func SignUpEmail(c *gin.Context, d *internal.Deps) {
	var data signUpBody
	if err := c.ShouldBind(&data); err != nil {
		badBody(c, err)
		return
	}

	sw, err := d.Auth.SignUpEmail(c.Request.Context(), auth.SignUpInput{
		Name:      data.Name,
		Email:     data.Email,
		Password:  data.Password,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	metrics.RecordAuth("sign_up", err)
	if err != nil {
		respondError(c, err, "Failed to sign up")
		return
	}

	d.Sessions.SetCookies(c, sw)
	c.JSON(http.StatusOK, gin.H{
		"token": sw.Session.Token,
		"user":  sw.User,
	})
}
