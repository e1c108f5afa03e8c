package page

import (
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"bitwise74/web-starter/internal"
	"bitwise74/web-starter/internal/metrics"
	"bitwise74/web-starter/internal/model"
	"bitwise74/web-starter/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type dashboard struct {
	Greeting    string
	FirstName   string
	Initials    string
	MemberSince string
	Created     string
	Updated     string
}

func greeting(hour int) string {
	switch {
	case hour < 12:
		return "Good morning"
	case hour < 18:
		return "Good afternoon"
	default:
		return "Good evening"
	}
}

// initials takes the first letter of the first two name parts
func initials(name string) string {
	var b strings.Builder

	for _, part := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(part)
		b.WriteRune(r)

		if utf8.RuneCountInString(b.String()) == 2 {
			break
		}
	}

	return strings.ToUpper(b.String())
}

func newDashboard(u *model.User, now time.Time) dashboard {
	first := ""
	if parts := strings.Fields(u.Name); len(parts) > 0 {
		first = parts[0]
	}

	return dashboard{
		Greeting:    greeting(now.Hour()),
		FirstName:   first,
		Initials:    initials(u.Name),
		MemberSince: u.CreatedAt.Format("January 2006"),
		Created:     u.CreatedAt.Format("Jan 2, 2006"),
		Updated:     u.UpdatedAt.Format("Jan 2, 2006"),
	}
}

func Dashboard(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	sw, _ := middleware.CurrentSession(c)

	sessions, err := d.Auth.ListSessions(c.Request.Context(), sw.User.ID)
	if err != nil {
		// The page is still useful without the list
		zap.L().Error("Failed to list sessions", zap.Error(err), zap.String("requestID", requestID))
	}

	h := data(c, d, "Dashboard")
	h["Dashboard"] = newDashboard(&sw.User, time.Now())
	h["Sessions"] = sessions
	h["CurrentToken"] = sw.Session.Token
	h["AvatarsEnabled"] = d.Avatars != nil

	c.HTML(http.StatusOK, "dashboard.html", h)
}

// DashboardAction signs the user out
func DashboardAction(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	token, _ := d.Sessions.Token(c)
	err := d.Auth.SignOut(c.Request.Context(), token)
	metrics.RecordAuth("sign_out", err)
	if err != nil {
		zap.L().Error("Failed to sign out", zap.Error(err), zap.String("requestID", requestID))
	}

	d.Sessions.ClearCookies(c)
	c.Redirect(http.StatusSeeOther, "/auth")
}
