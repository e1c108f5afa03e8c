package page

import (
	"net/http"

	"bitwise74/web-starter/internal"

	"github.com/gin-gonic/gin"
)

type feature struct {
	Label  string
	Detail string
}

var features = []feature{
	{"Dark mode without flashes", "The color scheme cookie is read on the server so the first paint is already right"},
	{"Email and password auth", "Server side sessions with sliding expiry, signed cookies and an optional cookie cache"},
	{"SQLite or Postgres", "Pick a driver in the config, the schema is migrated on start"},
	{"Database seeding", "Run with --seed to create a demo user"},
	{"Avatar uploads", "Images go to any S3 compatible storage"},
	{"Metrics", "Prometheus metrics are served on /metrics"},
}

func Home(c *gin.Context, d *internal.Deps) {
	h := data(c, d, "")
	h["Description"] = "Full-stack web starter with server-rendered pages, authentication and a relational store."
	h["Features"] = features

	c.HTML(http.StatusOK, "home.html", h)
}
