package page

import (
	"errors"
	"net/http"

	"bitwise74/web-starter/internal"
	"bitwise74/web-starter/internal/auth"
	"bitwise74/web-starter/internal/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	intentSignIn = "sign-in"
	intentSignUp = "sign-up"
)

func authData(c *gin.Context, d *internal.Deps, signUp bool) gin.H {
	h := data(c, d, "Auth")
	h["SignUp"] = signUp
	h["Name"] = ""
	h["Email"] = ""
	h["Error"] = ""

	return h
}

// Auth renders the sign in form, or the sign up form with ?mode=sign-up
func Auth(c *gin.Context, d *internal.Deps) {
	c.HTML(http.StatusOK, "auth.html", authData(c, d, c.Query("mode") == intentSignUp))
}

// AuthAction handles the sign in and sign up forms. On success the session
// cookie is set and the user is sent to the dashboard, errors re-render the
// form with the message
func AuthAction(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	intent := c.PostForm("intent")

	var (
		sw       *auth.SessionWithUser
		err      error
		fallback string
	)

	ip, ua := c.ClientIP(), c.Request.UserAgent()

	switch intent {
	case intentSignUp:
		fallback = "Sign up failed"
		sw, err = d.Auth.SignUpEmail(c.Request.Context(), auth.SignUpInput{
			Name:      c.PostForm("name"),
			Email:     c.PostForm("email"),
			Password:  c.PostForm("password"),
			IPAddress: ip,
			UserAgent: ua,
		})
		metrics.RecordAuth("sign_up", err)
	case intentSignIn:
		fallback = "Sign in failed"
		sw, err = d.Auth.SignInEmail(c.Request.Context(), auth.SignInInput{
			Email:     c.PostForm("email"),
			Password:  c.PostForm("password"),
			IPAddress: ip,
			UserAgent: ua,
		})
		metrics.RecordAuth("sign_in", err)
	default:
		h := authData(c, d, false)
		h["Error"] = "Invalid action"
		c.HTML(http.StatusBadRequest, "auth.html", h)
		return
	}

	if err != nil {
		h := authData(c, d, intent == intentSignUp)
		h["Name"] = c.PostForm("name")
		h["Email"] = c.PostForm("email")

		status := http.StatusInternalServerError
		var authErr *auth.Error
		if errors.As(err, &authErr) {
			status = authErr.Status
			h["Error"] = authErr.Message
		} else {
			h["Error"] = fallback
			zap.L().Error("Auth form action failed", zap.Error(err), zap.String("intent", intent), zap.String("requestID", requestID))
		}

		c.HTML(status, "auth.html", h)
		return
	}

	d.Sessions.SetCookies(c, sw)
	c.Redirect(http.StatusSeeOther, "/dashboard")
}
